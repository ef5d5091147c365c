package rules

import (
	"errors"
	"testing"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

func TestParseCreatedAt(t *testing.T) {
	if _, err := ParseCreatedAt("2026-03-10T09:00:00Z"); err != nil {
		t.Fatalf("ParseCreatedAt(valid) error = %v", err)
	}
	_, err := ParseCreatedAt("not-a-date")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseCreatedAt(garbage) error = %v, want ErrInvalidDate", err)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", "N/A"},
		{"garbage", "yesterday", "Invalid Date"},
		{"valid", "2026-03-10T09:05:00Z", "Mar 10, 2026 09:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.value); got != tt.want {
				t.Errorf("FormatDate(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatStatus(t *testing.T) {
	if got := FormatStatus(domain.TicketStatusInProgress); got != "In Progress" {
		t.Errorf("FormatStatus(in_progress) = %q", got)
	}
	if got := FormatStatus("escalated"); got != "Escalated" {
		t.Errorf("FormatStatus(unknown) = %q, want capitalized fallback", got)
	}
}

func TestFormatPriority(t *testing.T) {
	if got := FormatPriority(domain.TicketPriorityCritical); got != "Critical" {
		t.Errorf("FormatPriority(critical) = %q", got)
	}
	if got := FormatPriority("urgent"); got != "Urgent" {
		t.Errorf("FormatPriority(unknown) = %q, want capitalized fallback", got)
	}
}
