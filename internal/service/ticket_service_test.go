package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/events"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	apperrors "github.com/nsu-it/helpdesk-service/pkg/util"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	seq     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) ListOpen(_ context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Open() {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) BulkUpdateStatus(_ context.Context, ids []string, status domain.TicketStatus) (int64, error) {
	var affected int64
	for _, id := range ids {
		ticket, ok := r.tickets[id]
		if !ok {
			continue
		}
		ticket.Status = status
		affected++
	}
	return affected, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context) (map[domain.TicketStatus]int64, error) {
	counts := map[domain.TicketStatus]int64{}
	for _, ticket := range r.tickets {
		counts[ticket.Status]++
	}
	return counts, nil
}

type fakeNoteRepo struct {
	notes []domain.TicketNote
	seq   int
}

func (r *fakeNoteRepo) Create(_ context.Context, note *domain.TicketNote) error {
	r.seq++
	note.ID = fmt.Sprintf("n-%d", r.seq)
	note.CreatedAt = time.Now()
	r.notes = append(r.notes, *note)
	return nil
}

func (r *fakeNoteRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketNote, error) {
	var out []domain.TicketNote
	for _, note := range r.notes {
		if note.TicketID == ticketID {
			out = append(out, note)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeStaffRepo struct {
	members map[string]*domain.StaffMember
}

func (r *fakeStaffRepo) Create(_ context.Context, _ *domain.StaffMember) error { return nil }
func (r *fakeStaffRepo) Update(_ context.Context, _ *domain.StaffMember) error { return nil }

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	member, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return member, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, _ string) (*domain.StaffMember, error) {
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) ListActive(_ context.Context) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, member := range r.members {
		if member.Active {
			out = append(out, *member)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type fixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	notes      *fakeNoteRepo
	history    *fakeHistoryRepo
	staff      *fakeStaffRepo
	dispatcher *recordingDispatcher
}

func newFixture() *fixture {
	tickets := newFakeTicketRepo()
	notes := &fakeNoteRepo{}
	history := &fakeHistoryRepo{}
	staff := &fakeStaffRepo{members: map[string]*domain.StaffMember{
		"s-1": {ID: "s-1", Name: "Ops One", Role: domain.StaffRoleITStaff, Active: true},
		"s-2": {ID: "s-2", Name: "Ops Two", Role: domain.StaffRoleITStaff, Active: false},
	}}
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		NoteRepo:    notes,
		HistoryRepo: history,
		StaffRepo:   staff,
		Dispatcher:  dispatcher,
	})
	return &fixture{service: svc, tickets: tickets, notes: notes, history: history, staff: staff, dispatcher: dispatcher}
}

func testUser(role domain.UserRole, userType domain.UserType) *domain.User {
	return &domain.User{
		ID:     "u-1",
		Name:   "Test Requester",
		Email:  "requester@northsouth.edu",
		Role:   role,
		Type:   userType,
		Status: domain.UserStatusActive,
	}
}

func adminStaff() *domain.StaffMember {
	return &domain.StaffMember{ID: "s-admin", Name: "Admin", Role: domain.StaffRoleAdmin, Active: true}
}

func itStaff() *domain.StaffMember {
	return &domain.StaffMember{ID: "s-1", Name: "Ops One", Role: domain.StaffRoleITStaff, Active: true}
}

func TestCreateTicketResolvesFacultyPriority(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleFaculty, domain.TypeDean)
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "ERP access down",
		Description: "Cannot access the grade entry module at all.",
		Category:    "rds_erp",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityCritical {
		t.Fatalf("expected critical priority for dean, got %s", ticket.Priority)
	}
	if ticket.Status != domain.TicketStatusNew {
		t.Fatalf("expected new status, got %s", ticket.Status)
	}
	if !strings.HasPrefix(ticket.ExternalKey, "RDS-") {
		t.Fatalf("expected RDS key prefix, got %s", ticket.ExternalKey)
	}
	if len(f.dispatcher.published) != 1 || f.dispatcher.published[0].Type != events.EventTicketCreated {
		t.Fatalf("expected ticket_created event, got %+v", f.dispatcher.published)
	}
}

func TestCreateTicketRejectsInvalidForm(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	_, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Broken laptop",
		Description: "too short",
		Category:    "hardware",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
	if _, ok := domainErr.Details["description"]; !ok {
		t.Fatalf("expected description detail, got %v", domainErr.Details)
	}
	if _, ok := domainErr.Details["assetId"]; !ok {
		t.Fatalf("expected assetId detail, got %v", domainErr.Details)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Wifi down in library",
		Description: "No connectivity on the third floor since morning.",
		Category:    "network",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	_, err = f.service.UpdateStatus(context.Background(), itStaff(), ticket.ID, domain.TicketStatusClosed, "")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "ILLEGAL_TRANSITION" {
		t.Fatalf("expected ILLEGAL_TRANSITION, got %v", err)
	}

	updated, err := f.service.UpdateStatus(context.Background(), itStaff(), ticket.ID, domain.TicketStatusInProgress, "picked up")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("expected in_progress, got %s", updated.Status)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].ChangeType != domain.ChangeTypeStatus {
		t.Fatalf("expected one status history entry, got %+v", f.history.entries)
	}
}

func TestAssignTicketMovesNewToAssigned(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Password reset for portal",
		Description: "Locked out of the student portal account.",
		Category:    "account",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	updated, err := f.service.AssignTicket(context.Background(), adminStaff(), ticket.ID, "s-1")
	if err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}
	if updated.Status != domain.TicketStatusAssigned {
		t.Fatalf("expected assigned, got %s", updated.Status)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != "s-1" {
		t.Fatalf("expected assignee s-1, got %v", updated.AssigneeID)
	}

	_, err = f.service.AssignTicket(context.Background(), adminStaff(), ticket.ID, "s-2")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT for inactive assignee, got %v", err)
	}
}

func TestInternalNotesHiddenFromRequester(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Projector flickers in room 204",
		Description: "Display cuts out every few minutes during lectures.",
		Category:    "other",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if _, err := f.service.AddNote(context.Background(), domain.SubjectTypeStaff, "s-1", ticket.ID, "swap cable, check VGA port", true); err != nil {
		t.Fatalf("AddNote internal: %v", err)
	}
	if _, err := f.service.AddNote(context.Background(), domain.SubjectTypeUser, user.ID, ticket.ID, "It happened again today", false); err != nil {
		t.Fatalf("AddNote public: %v", err)
	}

	_, notes, err := f.service.GetTicketForUser(context.Background(), user.ID, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicketForUser: %v", err)
	}
	if len(notes) != 1 || notes[0].Internal {
		t.Fatalf("expected only the public note, got %+v", notes)
	}

	_, staffNotes, err := f.service.GetTicketForStaff(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetTicketForStaff: %v", err)
	}
	if len(staffNotes) != 2 {
		t.Fatalf("expected staff to see both notes, got %d", len(staffNotes))
	}
}

func TestRequesterCannotPostInternalNote(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Printer jam in lab",
		Description: "The shared printer keeps jamming on duplex jobs.",
		Category:    "other",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	_, err = f.service.AddNote(context.Background(), domain.SubjectTypeUser, user.ID, ticket.ID, "note body", true)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestBulkOverrideRequiresAdmin(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Stale ticket from last term",
		Description: "Leftover request that was handled out of band.",
		Category:    "other",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	_, err = f.service.BulkOverrideStatus(context.Background(), itStaff(), []string{ticket.ID}, domain.TicketStatusClosed)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for non-admin, got %v", err)
	}

	affected, err := f.service.BulkOverrideStatus(context.Background(), adminStaff(), []string{ticket.ID}, domain.TicketStatusClosed)
	if err != nil {
		t.Fatalf("BulkOverrideStatus: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	got, err := f.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.TicketStatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].ChangeType != domain.ChangeTypeOverride {
		t.Fatalf("expected override audit entry, got %+v", f.history.entries)
	}
}

func TestCloseTicketAsUserOnlyFromResolved(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Monitor replacement request",
		Description: "Dead pixels cover most of the left half now.",
		Category:    "other",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	_, err = f.service.CloseTicketAsUser(context.Background(), user.ID, ticket.ID)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "ILLEGAL_TRANSITION" {
		t.Fatalf("expected ILLEGAL_TRANSITION from new, got %v", err)
	}

	if _, err := f.service.UpdateStatus(context.Background(), itStaff(), ticket.ID, domain.TicketStatusInProgress, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := f.service.UpdateStatus(context.Background(), itStaff(), ticket.ID, domain.TicketStatusResolved, "fixed"); err != nil {
		t.Fatalf("UpdateStatus resolve: %v", err)
	}
	closed, err := f.service.CloseTicketAsUser(context.Background(), user.ID, ticket.ID)
	if err != nil {
		t.Fatalf("CloseTicketAsUser: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed with timestamp, got %+v", closed)
	}
}

func TestGetTicketForUserEnforcesOwnership(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Slow VPN from dorms",
		Description: "Connection drops to unusable speeds after 8pm.",
		Category:    "network",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	_, _, err = f.service.GetTicketForUser(context.Background(), "someone-else", ticket.ID)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCreateTicketLabRelatedOutranksRole(t *testing.T) {
	f := newFixture()
	user := testUser(domain.RoleStudent, "")
	ticket, err := f.service.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:        "MATLAB missing on lab machines",
		Description:  "Half the stations lost their MATLAB install overnight.",
		Category:     "lab_software",
		LabRelated:   true,
		LabName:      "CSE Lab 3",
		SoftwareName: "MATLAB",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityHigh {
		t.Fatalf("expected high priority for lab-related ticket, got %s", ticket.Priority)
	}
}
