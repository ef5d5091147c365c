package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/events"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	"github.com/nsu-it/helpdesk-service/internal/rules"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows. Every status mutation passes
// through the rules transition gate; the administrative bulk override is the
// single audited exception.
type TicketService struct {
	tickets    repository.TicketRepository
	notes      repository.TicketNoteRepository
	history    repository.TicketHistoryRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	NoteRepo    repository.TicketNoteRepository
	HistoryRepo repository.TicketHistoryRepository
	StaffRepo   repository.StaffRepository
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title           string
	Description     string
	Category        string
	Priority        string
	LabRelated      bool
	AssetID         string
	OSVersion       string
	LabName         string
	SoftwareName    string
	RequisitionType string
	ContactMethod   string
}

// TicketUserFilter describes requester listing filters.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStaffFilter describes staff listing filters.
type TicketStaffFilter struct {
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		notes:      deps.NoteRepo,
		history:    deps.HistoryRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateTicket validates the submission, resolves the default priority from
// the submitter and creates the ticket in status "new".
func (s *TicketService) CreateTicket(ctx context.Context, user *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	result := rules.ValidateTicketForm(rules.TicketForm{
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		AssetID:         input.AssetID,
		OSVersion:       input.OSVersion,
		LabName:         input.LabName,
		SoftwareName:    input.SoftwareName,
		RequisitionType: input.RequisitionType,
	})
	if !result.Valid {
		details := make(map[string]any, len(result.Errors))
		for field, message := range result.Errors {
			details[field] = message
		}
		return nil, apperrors.NewValidationError("ticket form invalid", details)
	}

	category := domain.TicketCategory(input.Category)
	priority := domain.TicketPriority(input.Priority)
	if priority == "" {
		priority = rules.ResolvePriority(rules.Submitter{Role: user.Role, Type: user.Type}, category, input.LabRelated)
	} else {
		priority = rules.NormalizePriority(priority)
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(category),
		RequesterID: user.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Priority:    priority,
		Status:      domain.TicketStatusNew,
		LabRelated:  input.LabRelated,
		Details: domain.TicketDetails{
			AssetID:         strings.TrimSpace(input.AssetID),
			OSVersion:       input.OSVersion,
			LabName:         strings.TrimSpace(input.LabName),
			SoftwareName:    strings.TrimSpace(input.SoftwareName),
			RequisitionType: strings.TrimSpace(input.RequisitionType),
			ContactMethod:   input.ContactMethod,
		},
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(user.ID),
		Payload: events.TicketCreatedPayload{
			Category:   ticket.Category,
			Priority:   ticket.Priority,
			LabRelated: ticket.LabRelated,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForUser fetches a ticket ensuring ownership. Internal notes are
// stripped before anything reaches the requester.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketNote, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.RequesterID != userID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	notes, err := s.notes.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	visible := make([]domain.TicketNote, 0, len(notes))
	for _, note := range notes {
		if note.Internal {
			continue
		}
		visible = append(visible, note)
	}
	return ticket, visible, nil
}

// ListStaffTickets returns tickets matching the staff filter.
func (s *TicketService) ListStaffTickets(ctx context.Context, filter TicketStaffFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForStaff fetches a ticket with the full note thread.
func (s *TicketService) GetTicketForStaff(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketNote, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.notes.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, notes, nil
}

// BoardColumns groups open tickets by status for the triage board.
func (s *TicketService) BoardColumns(ctx context.Context) (map[domain.TicketStatus][]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusNew,
			domain.TicketStatusAssigned,
			domain.TicketStatusInProgress,
			domain.TicketStatusPendingUser,
			domain.TicketStatusResolved,
		},
		Limit: 500,
	})
	if err != nil {
		return nil, err
	}
	columns := map[domain.TicketStatus][]domain.Ticket{
		domain.TicketStatusNew:         {},
		domain.TicketStatusAssigned:    {},
		domain.TicketStatusInProgress:  {},
		domain.TicketStatusPendingUser: {},
		domain.TicketStatusResolved:    {},
	}
	for _, ticket := range tickets {
		columns[ticket.Status] = append(columns[ticket.Status], ticket)
	}
	return columns, nil
}

// UpdateStatus moves a ticket through the workflow on behalf of staff.
func (s *TicketService) UpdateStatus(ctx context.Context, staff *domain.StaffMember, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewForbidden("staff required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := rules.CheckTransition(ticket.Status, newStatus); err != nil {
		return nil, apperrors.NewIllegalTransition(err.Error())
	}
	oldStatus := ticket.Status
	s.applyStatus(ticket, newStatus)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, oldStatus, newStatus, comment, false); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// AssignTicket sets the assignee; a fresh ticket is moved to assigned
// through the transition gate.
func (s *TicketService) AssignTicket(ctx context.Context, staff *domain.StaffMember, ticketID, assigneeID string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewForbidden("staff required")
	}
	assignee, err := s.staff.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if ticket.Status == domain.TicketStatusNew {
		if err := rules.CheckTransition(ticket.Status, domain.TicketStatusAssigned); err != nil {
			return nil, apperrors.NewIllegalTransition(err.Error())
		}
		s.applyStatus(ticket, domain.TicketStatusAssigned)
	}
	ticket.AssigneeID = &assignee.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordAssignment(ctx, &staff.ID, ticket.ID, assignee.ID); err != nil {
		return nil, err
	}
	if oldStatus != ticket.Status {
		if err := s.recordStatusChange(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, oldStatus, ticket.Status, "assigned", false); err != nil {
			return nil, err
		}
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketAssignedPayload{
			AssigneeStaffID: ticket.AssigneeID,
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority by staff. Unknown values collapse
// to medium rather than failing.
func (s *TicketService) UpdatePriority(ctx context.Context, staff *domain.StaffMember, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewForbidden("staff required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	newPriority = rules.NormalizePriority(newPriority)
	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordPriorityChange(ctx, &staff.ID, ticket.ID, oldPriority, newPriority); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// AddNote appends a note to a ticket. Requesters may only post public notes
// on their own tickets; staff may mark notes internal.
func (s *TicketService) AddNote(ctx context.Context, actor domain.SubjectType, actorID string, ticketID, body string, internal bool) (*domain.TicketNote, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("note body required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	note := &domain.TicketNote{
		TicketID: ticket.ID,
		Body:     strings.TrimSpace(body),
		Internal: internal,
	}
	switch actor {
	case domain.SubjectTypeUser:
		if ticket.RequesterID != actorID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if internal {
			return nil, apperrors.NewForbidden("requesters cannot post internal notes")
		}
		note.AuthorType = domain.AuthorTypeUser
		authorID := actorID
		note.AuthorID = &authorID
	case domain.SubjectTypeStaff:
		note.AuthorType = domain.AuthorTypeStaff
		authorID := actorID
		note.AuthorID = &authorID
	default:
		return nil, errors.New("unknown actor")
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: ticket.ID,
		Actor:    actorFromSubject(actor, actorID),
		Payload: events.TicketNoteAddedPayload{
			NoteID:      note.ID,
			AuthorType:  note.AuthorType,
			AuthorID:    note.AuthorID,
			Internal:    note.Internal,
			BodyPreview: stringPreview(note.Body, 120),
		},
	})
	return note, nil
}

// CloseTicketAsUser lets a requester close their own resolved ticket. The
// transition gate makes any other starting status an illegal transition.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if err := rules.CheckTransition(ticket.Status, domain.TicketStatusClosed); err != nil {
		return nil, apperrors.NewIllegalTransition(err.Error())
	}
	oldStatus := ticket.Status
	s.applyStatus(ticket, domain.TicketStatusClosed)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeUser, &userID, ticket.ID, oldStatus, ticket.Status, "user_closed", false); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   "user_closed",
		},
	})
	return ticket, nil
}

// BulkOverrideStatus force-sets the status on many tickets at once,
// bypassing the transition gate. Restricted to admins and audited per
// ticket.
func (s *TicketService) BulkOverrideStatus(ctx context.Context, staff *domain.StaffMember, ticketIDs []string, status domain.TicketStatus) (int64, error) {
	if staff == nil || staff.Role != domain.StaffRoleAdmin {
		return 0, apperrors.NewForbidden("admin role required for bulk override")
	}
	if !rules.ValidStatus(status) {
		return 0, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}
	if len(ticketIDs) == 0 {
		return 0, apperrors.NewValidationError("ticket_ids required", nil)
	}

	affected, err := s.tickets.BulkUpdateStatus(ctx, ticketIDs, status)
	if err != nil {
		return 0, err
	}
	for _, id := range ticketIDs {
		if err := s.recordStatusChange(ctx, domain.AuthorTypeStaff, &staff.ID, id, "", status, "bulk_override", true); err != nil {
			return affected, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: id,
			Actor:    staffActor(staff.ID),
			Payload: events.TicketStatusChangedPayload{
				NewStatus: status,
				Comment:   "bulk_override",
				Override:  true,
			},
		})
	}
	return affected, nil
}

// ListHistory returns audit entries for a ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) applyStatus(ticket *domain.Ticket, status domain.TicketStatus) {
	if status == domain.TicketStatusClosed {
		now := s.now()
		ticket.ClosedAt = &now
	} else if ticket.ClosedAt != nil {
		ticket.ClosedAt = nil
	}
	ticket.Status = status
}

func (s *TicketService) recordStatusChange(ctx context.Context, actorType domain.NoteAuthorType, actorID *string, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string, override bool) error {
	if s.history == nil {
		return nil
	}
	changeType := domain.ChangeTypeStatus
	if override {
		changeType = domain.ChangeTypeOverride
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    changeType,
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
	if oldStatus != "" {
		entry.OldValue = map[string]any{"status": oldStatus}
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) recordPriorityChange(ctx context.Context, actorID *string, ticketID string, oldPriority, newPriority domain.TicketPriority) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypePriority,
		OldValue: map[string]any{
			"priority": oldPriority,
		},
		NewValue: map[string]any{
			"priority": newPriority,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) recordAssignment(ctx context.Context, actorID *string, ticketID, assigneeID string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeAssignee,
		NewValue: map[string]any{
			"assignee_staff_id": assigneeID,
		},
	}
	return s.history.Create(ctx, entry)
}

// ticketKeyPrefixes keys external ticket ids by category for quick triage.
var ticketKeyPrefixes = map[domain.TicketCategory]string{
	domain.CategoryHardware:       "HW",
	domain.CategorySoftware:       "SW",
	domain.CategoryNetwork:        "NET",
	domain.CategoryAccount:        "ACC",
	domain.CategoryRDSERP:         "RDS",
	domain.CategoryLabSoftware:    "LAB",
	domain.CategoryLabRequisition: "REQ",
}

func generateTicketKey(category domain.TicketCategory) string {
	prefix, ok := ticketKeyPrefixes[category]
	if !ok {
		prefix = "TKT"
	}
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeStaff,
		StaffID: &staffID,
	}
}

func actorFromSubject(subject domain.SubjectType, id string) events.Actor {
	switch subject {
	case domain.SubjectTypeStaff:
		return staffActor(id)
	default:
		return userActor(id)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
