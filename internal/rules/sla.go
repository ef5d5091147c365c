package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// SLAState classifies how a ticket stands against its SLA budget.
type SLAState string

const (
	SLAResolved SLAState = "resolved"
	SLABreached SLAState = "breached"
	SLAWarning  SLAState = "warning"
	SLANormal   SLAState = "normal"
)

// slaBudgets maps priority to the allowed hours from creation to resolution.
var slaBudgets = map[domain.TicketPriority]time.Duration{
	domain.TicketPriorityCritical: 2 * time.Hour,
	domain.TicketPriorityHigh:     4 * time.Hour,
	domain.TicketPriorityMedium:   8 * time.Hour,
	domain.TicketPriorityLow:      24 * time.Hour,
}

// Budget returns the SLA budget for a priority. Unknown priorities get the
// medium budget.
func Budget(priority domain.TicketPriority) time.Duration {
	if budget, ok := slaBudgets[priority]; ok {
		return budget
	}
	return slaBudgets[domain.TicketPriorityMedium]
}

// Deadline is createdAt plus the priority's budget. It is always derived,
// never stored, so it cannot drift from the ticket record.
func Deadline(createdAt time.Time, priority domain.TicketPriority) time.Time {
	return createdAt.Add(Budget(priority))
}

// SLAStatus is the transient result of evaluating a ticket against its
// budget at a point in time.
type SLAStatus struct {
	State     SLAState
	HoursLeft float64
}

// EvaluateSLA classifies a ticket as of now. Resolved and closed tickets are
// always "resolved" regardless of elapsed time. The warning band is the final
// hour of the budget for every priority.
func EvaluateSLA(status domain.TicketStatus, priority domain.TicketPriority, createdAt, now time.Time) SLAStatus {
	if status == domain.TicketStatusResolved || status == domain.TicketStatusClosed {
		return SLAStatus{State: SLAResolved}
	}

	hoursLeft := Budget(priority).Hours() - now.Sub(createdAt).Hours()
	switch {
	case hoursLeft <= 0:
		return SLAStatus{State: SLABreached, HoursLeft: 0}
	case hoursLeft <= 1:
		return SLAStatus{State: SLAWarning, HoursLeft: hoursLeft}
	default:
		return SLAStatus{State: SLANormal, HoursLeft: hoursLeft}
	}
}

// Label renders the remaining budget for display: whole minutes under an
// hour, whole hours otherwise, both rounded up; breached is literal.
func (s SLAStatus) Label() string {
	if s.State == SLABreached {
		return "Breached"
	}
	if s.State == SLAResolved {
		return "Resolved"
	}
	if s.HoursLeft < 1 {
		return fmt.Sprintf("%dm", int(math.Ceil(s.HoursLeft*60)))
	}
	return fmt.Sprintf("%dh", int(math.Ceil(s.HoursLeft)))
}
