package domain

import "time"

// NoteAuthorType indicates who authored a note.
type NoteAuthorType string

const (
	AuthorTypeUser   NoteAuthorType = "USER"
	AuthorTypeStaff  NoteAuthorType = "STAFF"
	AuthorTypeSystem NoteAuthorType = "SYSTEM"
)

// TicketNote is one entry in a ticket's append-only note thread. Internal
// notes are never shown to the requester.
type TicketNote struct {
	ID         string
	TicketID   string
	AuthorType NoteAuthorType
	AuthorID   *string
	Body       string
	Internal   bool
	CreatedAt  time.Time
}
