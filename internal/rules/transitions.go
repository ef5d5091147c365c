package rules

import (
	"fmt"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// IllegalTransitionError reports a status change outside the legal edge set.
type IllegalTransitionError struct {
	From domain.TicketStatus
	To   domain.TicketStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

// allowedTransitions is the ticket workflow: a mostly linear forward flow
// with a direct start edge (new -> in_progress) and reopening from
// pending_user. closed is terminal; new is never reachable again.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:         {domain.TicketStatusAssigned, domain.TicketStatusInProgress},
	domain.TicketStatusAssigned:    {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusInProgress:  {domain.TicketStatusPendingUser, domain.TicketStatusResolved},
	domain.TicketStatusPendingUser: {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed},
	domain.TicketStatusClosed:      {},
}

// CheckTransition validates a status change against the legal edge set.
// Every status mutation goes through this gate; administrative bulk
// overrides are the single documented exception.
func CheckTransition(current, next domain.TicketStatus) error {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return nil
		}
	}
	return &IllegalTransitionError{From: current, To: next}
}

// ValidStatus reports whether s is part of the status vocabulary.
func ValidStatus(s domain.TicketStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}
