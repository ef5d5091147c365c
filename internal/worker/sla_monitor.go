package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/events"
	"github.com/nsu-it/helpdesk-service/internal/observability"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	"github.com/nsu-it/helpdesk-service/internal/rules"
)

// SLAMonitor periodically scans open tickets and emits a breach event the
// first time each ticket crosses its deadline. A Redis cooldown key keeps
// repeated scans from re-alerting the same ticket.
type SLAMonitor struct {
	tickets  repository.TicketRepository
	dispatch events.Dispatcher
	cache    *redis.Client
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
	cooldown time.Duration
	now      func() time.Time
}

// SLAMonitorDependencies bundles monitor dependencies.
type SLAMonitorDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Cache      *redis.Client
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Interval   time.Duration
	Cooldown   time.Duration
	Now        func() time.Time
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(deps SLAMonitorDependencies) *SLAMonitor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &SLAMonitor{
		tickets:  deps.TicketRepo,
		dispatch: deps.Dispatcher,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		interval: interval,
		cooldown: deps.Cooldown,
		now:      now,
	}
}

// Run blocks, scanning on every tick until the context is cancelled.
func (m *SLAMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			if err := m.Scan(ctx); err != nil {
				m.logger.Error("sla scan failed", zap.Error(err))
			}
		}
	}
}

// Scan runs one pass over open tickets.
func (m *SLAMonitor) Scan(ctx context.Context) error {
	tickets, err := m.tickets.ListOpen(ctx)
	if err != nil {
		return err
	}
	now := m.now()
	breached := 0
	for i := range tickets {
		ticket := &tickets[i]
		status := rules.EvaluateSLA(ticket.Status, ticket.Priority, ticket.CreatedAt, now)
		if status.State != rules.SLABreached {
			continue
		}
		breached++
		if !m.shouldAlert(ctx, ticket.ID) {
			continue
		}
		m.alert(ctx, ticket, now)
	}
	m.logger.Debug("sla scan complete",
		zap.Int("open", len(tickets)),
		zap.Int("breached", breached))
	return nil
}

// shouldAlert claims the cooldown key; losing the claim means another scan
// alerted recently.
func (m *SLAMonitor) shouldAlert(ctx context.Context, ticketID string) bool {
	if m.cache == nil || m.cooldown <= 0 {
		return true
	}
	key := fmt.Sprintf("helpdesk:sla:alerted:%s", ticketID)
	claimed, err := m.cache.SetNX(ctx, key, m.now().Format(time.RFC3339), m.cooldown).Result()
	if err != nil {
		m.logger.Warn("sla cooldown check failed", zap.Error(err))
		return true
	}
	return claimed
}

func (m *SLAMonitor) alert(ctx context.Context, ticket *domain.Ticket, now time.Time) {
	if m.metrics != nil {
		m.metrics.RecordSLABreach()
	}
	deadline := rules.Deadline(ticket.CreatedAt, ticket.Priority)
	overdue := now.Sub(deadline).Round(time.Minute)
	m.logger.Warn("sla breached",
		zap.String("ticket_id", ticket.ID),
		zap.String("external_key", ticket.ExternalKey),
		zap.String("priority", string(ticket.Priority)),
		zap.Duration("overdue", overdue))

	if m.dispatch == nil {
		return
	}
	systemID := "sla-monitor"
	_ = m.dispatch.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketSLABreached,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &systemID},
		Timestamp: now,
		Payload: events.TicketSLABreachedPayload{
			Priority:  ticket.Priority,
			Deadline:  deadline,
			Overdue:   overdue.String(),
			Requester: ticket.RequesterID,
		},
	})
}
