package services

import (
	"context"
	"fmt"
	"time"

	"juku/internal/cache"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/reconcile"
	"juku/internal/report"
)

type cachedReport struct {
	from, to core.Period
	monthly  []core.MonthlySummary
	students []core.StudentSummary
}

func (c cachedReport) covers(p core.Period) bool {
	return !p.Before(c.from) && !p.After(c.to)
}

// ReportService computes summaries from one snapshot per request and keeps
// the results in a TTL cache keyed by kind and range.
type ReportService struct {
	loader   SnapshotLoader
	reporter *report.Reporter
	cache    *cache.LRUCache[cachedReport]
	logger   *log.Logger
}

type ReportOption func(*ReportService)

// WithReportCache enables result caching. A size of 0 leaves it disabled.
func WithReportCache(size int, ttl time.Duration) ReportOption {
	return func(s *ReportService) {
		if size > 0 && ttl > 0 {
			s.cache = cache.NewLRUCache[cachedReport](size, ttl)
		}
	}
}

func WithReportLogger(l *log.Logger) ReportOption {
	return func(s *ReportService) { s.logger = l }
}

func NewReportService(loader SnapshotLoader, reporter *report.Reporter, opts ...ReportOption) *ReportService {
	s := &ReportService{
		loader:   loader,
		reporter: reporter,
		logger:   log.Default(log.ComponentReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cleaner exposes the result cache for periodic cleanup; nil when caching is off.
func (s *ReportService) Cleaner() cache.Cleaner {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

func cacheKey(kind string, from, to core.Period) string {
	return kind + ":" + from.String() + ":" + to.String()
}

func (s *ReportService) load(ctx context.Context, from, to core.Period) (report.Snapshot, []core.Period, error) {
	periods := core.PeriodRange(from, to)
	if len(periods) == 0 {
		return report.Snapshot{}, nil, fmt.Errorf("%w: range %s..%s", core.ErrInvalidPeriod, from, to)
	}
	snap, err := s.loader.LoadSnapshot(ctx, from, to)
	if err != nil {
		return report.Snapshot{}, nil, err
	}
	return snap, periods, nil
}

// Monthly returns one summary row per period from..to.
func (s *ReportService) Monthly(ctx context.Context, from, to core.Period) ([]core.MonthlySummary, error) {
	key := cacheKey("monthly", from, to)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			return hit.monthly, nil
		}
	}

	start := time.Now()
	snap, periods, err := s.load(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	rows, err := s.reporter.Monthly(snap, periods)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(key, cachedReport{from: from, to: to, monthly: rows})
	}
	s.logger.DebugContext(ctx, "Monthly summary computed",
		log.FieldOperation, log.OpSummary,
		"from", from.String(),
		"to", to.String(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return rows, nil
}

// Students returns the student ledgers for from..to, largest debtors first.
func (s *ReportService) Students(ctx context.Context, from, to core.Period) ([]core.StudentSummary, error) {
	key := cacheKey("students", from, to)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			return hit.students, nil
		}
	}

	snap, periods, err := s.load(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("student summary: %w", err)
	}
	rows, err := s.reporter.Students(snap, periods)
	if err != nil {
		return nil, fmt.Errorf("student summary: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(key, cachedReport{from: from, to: to, students: rows})
	}
	return rows, nil
}

// Period reconciles every item billed in p. Not cached.
func (s *ReportService) Period(ctx context.Context, p core.Period) ([]reconcile.Result, error) {
	snap, _, err := s.load(ctx, p, p)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", p, err)
	}
	return s.reporter.Reconcile(snap, p)
}

// InvalidatePeriod drops every cached report whose range includes p.
func (s *ReportService) InvalidatePeriod(p core.Period) int {
	if s.cache == nil {
		return 0
	}
	n := s.cache.DeleteFunc(func(_ string, c cachedReport) bool { return c.covers(p) })
	if n > 0 {
		s.logger.Debug("Report cache invalidated", log.FieldPeriod, p.String(), "removed", n)
	}
	return n
}
