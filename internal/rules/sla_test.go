package rules

import (
	"testing"
	"time"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

func TestDeadlineMatchesBudget(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		priority domain.TicketPriority
		budget   time.Duration
	}{
		{domain.TicketPriorityCritical, 2 * time.Hour},
		{domain.TicketPriorityHigh, 4 * time.Hour},
		{domain.TicketPriorityMedium, 8 * time.Hour},
		{domain.TicketPriorityLow, 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			if got := Deadline(created, tt.priority).Sub(created); got != tt.budget {
				t.Errorf("Deadline - createdAt = %v, want %v", got, tt.budget)
			}
		})
	}
}

func TestBudgetUnknownPriority(t *testing.T) {
	if got := Budget("urgent"); got != 8*time.Hour {
		t.Errorf("Budget(urgent) = %v, want medium budget", got)
	}
}

func TestEvaluateSLA(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		status    domain.TicketStatus
		priority  domain.TicketPriority
		createdAt time.Time
		wantState SLAState
		wantHours float64
	}{
		{"fresh ticket is normal", domain.TicketStatusNew, domain.TicketPriorityMedium, now.Add(-1 * time.Hour), SLANormal, 7},
		{"high ticket 3h old is warning", domain.TicketStatusInProgress, domain.TicketPriorityHigh, now.Add(-3 * time.Hour), SLAWarning, 1},
		{"exactly at budget is breached", domain.TicketStatusNew, domain.TicketPriorityCritical, now.Add(-2 * time.Hour), SLABreached, 0},
		{"low ticket 30h old is breached", domain.TicketStatusAssigned, domain.TicketPriorityLow, now.Add(-30 * time.Hour), SLABreached, 0},
		{"resolved ignores elapsed time", domain.TicketStatusResolved, domain.TicketPriorityCritical, now.Add(-100 * time.Hour), SLAResolved, 0},
		{"closed ignores elapsed time", domain.TicketStatusClosed, domain.TicketPriorityCritical, now.Add(-100 * time.Hour), SLAResolved, 0},
		{"unknown priority uses medium budget", domain.TicketStatusNew, "urgent", now.Add(-2 * time.Hour), SLANormal, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateSLA(tt.status, tt.priority, tt.createdAt, now)
			if got.State != tt.wantState {
				t.Errorf("EvaluateSLA() state = %v, want %v", got.State, tt.wantState)
			}
			if got.HoursLeft != tt.wantHours {
				t.Errorf("EvaluateSLA() hoursLeft = %v, want %v", got.HoursLeft, tt.wantHours)
			}
		})
	}
}

func TestEvaluateSLAWarningUpperBoundInclusive(t *testing.T) {
	// hoursLeft of exactly 1.0 sits inside the warning band, not normal.
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	created := now.Add(-7 * time.Hour) // medium budget 8h
	got := EvaluateSLA(domain.TicketStatusInProgress, domain.TicketPriorityMedium, created, now)
	if got.State != SLAWarning {
		t.Errorf("state = %v, want warning", got.State)
	}
	if got.HoursLeft != 1 {
		t.Errorf("hoursLeft = %v, want 1", got.HoursLeft)
	}
}

func TestSLAStatusLabel(t *testing.T) {
	tests := []struct {
		name   string
		status SLAStatus
		want   string
	}{
		{"breached", SLAStatus{State: SLABreached}, "Breached"},
		{"resolved", SLAStatus{State: SLAResolved}, "Resolved"},
		{"whole hours round up", SLAStatus{State: SLANormal, HoursLeft: 6.2}, "7h"},
		{"exactly one hour", SLAStatus{State: SLAWarning, HoursLeft: 1}, "1h"},
		{"under an hour renders minutes", SLAStatus{State: SLAWarning, HoursLeft: 0.5}, "30m"},
		{"minutes round up", SLAStatus{State: SLAWarning, HoursLeft: 0.51}, "31m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluateSLAConsistentAcrossHourBoundary(t *testing.T) {
	// Two evaluations a second apart straddling the one-hour mark must both
	// follow the ceiling rule: 60m just before, warning either side.
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	priority := domain.TicketPriorityHigh // 4h budget

	before := created.Add(3*time.Hour - time.Second)
	after := created.Add(3*time.Hour + time.Second)

	first := EvaluateSLA(domain.TicketStatusInProgress, priority, created, before)
	second := EvaluateSLA(domain.TicketStatusInProgress, priority, created, after)

	if first.State != SLANormal {
		t.Errorf("just over an hour left: state = %v, want normal", first.State)
	}
	if second.State != SLAWarning {
		t.Errorf("just under an hour left: state = %v, want warning", second.State)
	}
	if got := second.Label(); got != "60m" {
		t.Errorf("just under an hour left: label = %q, want 60m", got)
	}
}
