package worker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/events"
	"github.com/nsu-it/helpdesk-service/internal/observability"
	"github.com/nsu-it/helpdesk-service/internal/repository"
)

type stubTicketRepo struct {
	open []domain.Ticket
}

func (r *stubTicketRepo) Create(context.Context, *domain.Ticket) error { return nil }
func (r *stubTicketRepo) Update(context.Context, *domain.Ticket) error { return nil }
func (r *stubTicketRepo) GetByID(context.Context, string) (*domain.Ticket, error) {
	return nil, nil
}
func (r *stubTicketRepo) GetByExternalKey(context.Context, string) (*domain.Ticket, error) {
	return nil, nil
}
func (r *stubTicketRepo) ListWithFilter(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}
func (r *stubTicketRepo) ListOpen(context.Context) ([]domain.Ticket, error) {
	return r.open, nil
}
func (r *stubTicketRepo) BulkUpdateStatus(context.Context, []string, domain.TicketStatus) (int64, error) {
	return 0, nil
}
func (r *stubTicketRepo) CountByStatus(context.Context) (map[domain.TicketStatus]int64, error) {
	return nil, nil
}

type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func TestScanAlertsOnlyBreachedTickets(t *testing.T) {
	now := time.Now()
	repo := &stubTicketRepo{open: []domain.Ticket{
		{ID: "t-1", ExternalKey: "HW-AAAA1111", RequesterID: "u-1", Status: domain.TicketStatusNew,
			Priority: domain.TicketPriorityCritical, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "t-2", ExternalKey: "NET-BBBB2222", RequesterID: "u-2", Status: domain.TicketStatusInProgress,
			Priority: domain.TicketPriorityLow, CreatedAt: now.Add(-1 * time.Hour)},
	}}
	dispatcher := &captureDispatcher{}

	monitor := NewSLAMonitor(SLAMonitorDependencies{
		TicketRepo: repo,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return now },
	})
	if err := monitor.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(dispatcher.published) != 1 {
		t.Fatalf("expected one breach event, got %d", len(dispatcher.published))
	}
	event := dispatcher.published[0]
	if event.Type != events.EventTicketSLABreached || event.TicketID != "t-1" {
		t.Fatalf("unexpected event %+v", event)
	}
	payload, ok := event.Payload.(events.TicketSLABreachedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Payload)
	}
	if payload.Priority != domain.TicketPriorityCritical {
		t.Fatalf("expected critical payload, got %s", payload.Priority)
	}
}

func TestScanSkipsResolvedAgedTickets(t *testing.T) {
	now := time.Now()
	repo := &stubTicketRepo{open: []domain.Ticket{
		{ID: "t-3", Status: domain.TicketStatusResolved,
			Priority: domain.TicketPriorityCritical, CreatedAt: now.Add(-48 * time.Hour)},
	}}
	dispatcher := &captureDispatcher{}
	monitor := NewSLAMonitor(SLAMonitorDependencies{
		TicketRepo: repo,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return now },
	})
	if err := monitor.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(dispatcher.published) != 0 {
		t.Fatalf("expected no events for resolved ticket, got %d", len(dispatcher.published))
	}
}
