package rules

import (
	"errors"
	"strings"
	"time"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// ErrInvalidDate marks an unparseable timestamp. Callers render the fixed
// placeholder instead of propagating garbage to the UI.
var ErrInvalidDate = errors.New("invalid date")

const invalidDatePlaceholder = "Invalid Date"

// ParseCreatedAt parses an RFC3339 timestamp, mapping failures to
// ErrInvalidDate.
func ParseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders a timestamp string for display, with the placeholder
// for empty or malformed input.
func FormatDate(value string) string {
	if value == "" {
		return "N/A"
	}
	t, err := ParseCreatedAt(value)
	if err != nil {
		return invalidDatePlaceholder
	}
	return t.Format("Jan 02, 2006 15:04")
}

// FormatTimestamp renders an already-parsed timestamp with the same layout.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 02, 2006 15:04")
}

var statusLabels = map[domain.TicketStatus]string{
	domain.TicketStatusNew:         "New",
	domain.TicketStatusAssigned:    "Assigned",
	domain.TicketStatusInProgress:  "In Progress",
	domain.TicketStatusPendingUser: "Pending User",
	domain.TicketStatusResolved:    "Resolved",
	domain.TicketStatusClosed:      "Closed",
}

var priorityLabels = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:      "Low",
	domain.TicketPriorityMedium:   "Medium",
	domain.TicketPriorityHigh:     "High",
	domain.TicketPriorityCritical: "Critical",
}

// FormatStatus returns the display label for a status.
func FormatStatus(status domain.TicketStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return capitalize(string(status))
}

// FormatPriority returns the display label for a priority.
func FormatPriority(priority domain.TicketPriority) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return capitalize(string(priority))
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
