package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nsu-it/helpdesk-service/internal/domain"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	"github.com/nsu-it/helpdesk-service/internal/rules"
)

const statsCacheKey = "helpdesk:stats:dashboard"

// DashboardStats summarizes ticket volume and SLA health for staff.
type DashboardStats struct {
	Total         int64                         `json:"total"`
	Open          int64                         `json:"open"`
	Resolved      int64                         `json:"resolved"`
	Closed        int64                         `json:"closed"`
	Overdue       int64                         `json:"overdue"`
	Warning       int64                         `json:"warning"`
	ByStatus      map[domain.TicketStatus]int64 `json:"by_status"`
	SLACompliance float64                       `json:"sla_compliance"`
	GeneratedAt   time.Time                     `json:"generated_at"`
}

// StatsService computes dashboard aggregates with a short Redis cache in
// front of the heavier open-ticket scan.
type StatsService struct {
	tickets  repository.TicketRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// StatsDependencies bundles stats service dependencies.
type StatsDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      *redis.Client
	CacheTTL   time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &StatsService{
		tickets:  deps.TicketRepo,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		logger:   deps.Logger,
		now:      now,
	}
}

// Dashboard returns current aggregates, served from cache when fresh.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{
		ByStatus:    counts,
		GeneratedAt: s.now(),
	}
	for status, count := range counts {
		stats.Total += count
		switch status {
		case domain.TicketStatusResolved:
			stats.Resolved += count
		case domain.TicketStatusClosed:
			stats.Closed += count
		default:
			stats.Open += count
		}
	}

	open, err := s.tickets.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, ticket := range open {
		switch rules.EvaluateSLA(ticket.Status, ticket.Priority, ticket.CreatedAt, now).State {
		case rules.SLABreached:
			stats.Overdue++
		case rules.SLAWarning:
			stats.Warning++
		}
	}
	if stats.Total > 0 {
		stats.SLACompliance = float64(stats.Total-stats.Overdue) / float64(stats.Total)
	} else {
		stats.SLACompliance = 1
	}

	s.toCache(ctx, stats)
	return stats, nil
}

func (s *StatsService) fromCache(ctx context.Context) *DashboardStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, stats *DashboardStats) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
}
