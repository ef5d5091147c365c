package dto

import (
	"time"

	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/rules"
)

// CreateTicketRequest payload. The camelCase detail fields mirror the
// portal's submission form.
type CreateTicketRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Priority        string `json:"priority,omitempty"`
	IsLabRelated    bool   `json:"isLabRelated"`
	AssetID         string `json:"assetId,omitempty"`
	OSVersion       string `json:"osVersion,omitempty"`
	LabName         string `json:"labName,omitempty"`
	SoftwareName    string `json:"softwareName,omitempty"`
	RequisitionType string `json:"requisitionType,omitempty"`
	ContactMethod   string `json:"contactMethod,omitempty"`
}

// TicketListQuery captures query filters for list endpoints.
type TicketListQuery struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// SLAResponse is the derived SLA block attached to ticket responses.
type SLAResponse struct {
	State     rules.SLAState `json:"state"`
	HoursLeft float64        `json:"hours_left"`
	Label     string         `json:"label"`
	Deadline  time.Time      `json:"deadline"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	StatusLabel  string                `json:"status_label"`
	Priority     domain.TicketPriority `json:"priority"`
	LabRelated   bool                  `json:"lab_related"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	SLA          SLAResponse           `json:"sla"`
	CreatedAt    time.Time             `json:"created_at"`
	CreatedAtFmt string                `json:"created_at_display"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string                `json:"id"`
	ExternalKey     string                `json:"external_key"`
	RequesterID     string                `json:"requester_id"`
	AssigneeID      *string               `json:"assignee_id,omitempty"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Category        domain.TicketCategory `json:"category"`
	Status          domain.TicketStatus   `json:"status"`
	StatusLabel     string                `json:"status_label"`
	Priority        domain.TicketPriority `json:"priority"`
	PriorityLabel   string                `json:"priority_label"`
	LabRelated      bool                  `json:"lab_related"`
	AssetID         string                `json:"assetId,omitempty"`
	OSVersion       string                `json:"osVersion,omitempty"`
	LabName         string                `json:"labName,omitempty"`
	SoftwareName    string                `json:"softwareName,omitempty"`
	RequisitionType string                `json:"requisitionType,omitempty"`
	ContactMethod   string                `json:"contactMethod,omitempty"`
	SLA             SLAResponse           `json:"sla"`
	CreatedAt       time.Time             `json:"created_at"`
	CreatedAtFmt    string                `json:"created_at_display"`
	UpdatedAt       time.Time             `json:"updated_at"`
	ClosedAt        *time.Time            `json:"closed_at,omitempty"`
	Notes           []TicketNoteResponse  `json:"notes"`
}

// TicketNoteResponse represents one note in the thread.
type TicketNoteResponse struct {
	ID         string                `json:"id"`
	AuthorType domain.NoteAuthorType `json:"author_type"`
	AuthorID   *string               `json:"author_id,omitempty"`
	Body       string                `json:"body"`
	Internal   bool                  `json:"internal"`
	CreatedAt  time.Time             `json:"created_at"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment,omitempty"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// BulkStatusRequest payload for the administrative override.
type BulkStatusRequest struct {
	TicketIDs []string            `json:"ticket_ids"`
	Status    domain.TicketStatus `json:"status"`
}

// BulkStatusResponse reports how many rows the override touched.
type BulkStatusResponse struct {
	Affected int64 `json:"affected"`
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangedByType domain.NoteAuthorType   `json:"changed_by_type"`
	ChangedByID   *string                 `json:"changed_by_id,omitempty"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	OldValue      map[string]any          `json:"old_value,omitempty"`
	NewValue      map[string]any          `json:"new_value,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NewTicketSummary maps a domain ticket to its summary representation.
func NewTicketSummary(t domain.Ticket, now time.Time) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		ExternalKey:  t.ExternalKey,
		Title:        t.Title,
		Category:     t.Category,
		Status:       t.Status,
		StatusLabel:  rules.FormatStatus(t.Status),
		Priority:     t.Priority,
		LabRelated:   t.LabRelated,
		AssigneeID:   t.AssigneeID,
		SLA:          NewSLAResponse(t, now),
		CreatedAt:    t.CreatedAt,
		CreatedAtFmt: rules.FormatTimestamp(t.CreatedAt),
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket plus notes to the detail response.
func NewTicketDetail(t domain.Ticket, notes []domain.TicketNote, now time.Time) TicketDetailResponse {
	noteResponses := make([]TicketNoteResponse, 0, len(notes))
	for _, note := range notes {
		noteResponses = append(noteResponses, TicketNoteResponse{
			ID:         note.ID,
			AuthorType: note.AuthorType,
			AuthorID:   note.AuthorID,
			Body:       note.Body,
			Internal:   note.Internal,
			CreatedAt:  note.CreatedAt,
		})
	}
	return TicketDetailResponse{
		ID:              t.ID,
		ExternalKey:     t.ExternalKey,
		RequesterID:     t.RequesterID,
		AssigneeID:      t.AssigneeID,
		Title:           t.Title,
		Description:     t.Description,
		Category:        t.Category,
		Status:          t.Status,
		StatusLabel:     rules.FormatStatus(t.Status),
		Priority:        t.Priority,
		PriorityLabel:   rules.FormatPriority(t.Priority),
		LabRelated:      t.LabRelated,
		AssetID:         t.Details.AssetID,
		OSVersion:       t.Details.OSVersion,
		LabName:         t.Details.LabName,
		SoftwareName:    t.Details.SoftwareName,
		RequisitionType: t.Details.RequisitionType,
		ContactMethod:   t.Details.ContactMethod,
		SLA:             NewSLAResponse(t, now),
		CreatedAt:       t.CreatedAt,
		CreatedAtFmt:    rules.FormatTimestamp(t.CreatedAt),
		UpdatedAt:       t.UpdatedAt,
		ClosedAt:        t.ClosedAt,
		Notes:           noteResponses,
	}
}

// NewSLAResponse derives the SLA block for a ticket as of now.
func NewSLAResponse(t domain.Ticket, now time.Time) SLAResponse {
	status := rules.EvaluateSLA(t.Status, t.Priority, t.CreatedAt, now)
	return SLAResponse{
		State:     status.State,
		HoursLeft: status.HoursLeft,
		Label:     status.Label(),
		Deadline:  rules.Deadline(t.CreatedAt, t.Priority),
	}
}

// NewTicketHistoryResponse maps one audit entry.
func NewTicketHistoryResponse(entry domain.TicketHistory) TicketHistoryResponse {
	return TicketHistoryResponse{
		ID:            entry.ID,
		ChangedByType: entry.ChangedByType,
		ChangedByID:   entry.ChangedByID,
		ChangeType:    entry.ChangeType,
		OldValue:      entry.OldValue,
		NewValue:      entry.NewValue,
		CreatedAt:     entry.CreatedAt,
	}
}
