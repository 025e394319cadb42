// Package usage generates the daily usage summaries: once per day, for the
// whole system and for every stream scope, it aggregates yesterday's raw usage
// metrics into one summary row and then purges aged raw usage data.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"usagesummary/internal/domain"
	"usagesummary/internal/telemetry"
)

// DateStrategy resolves calendar days relative to today.
type DateStrategy interface {
	DaysAgo(n int) time.Time
}

// WeekdayStrategy classifies calendar days.
type WeekdayStrategy interface {
	IsWeekday(t time.Time) bool
}

// SummaryStore reads and inserts summaries. GetSummary returns
// domain.ErrNotFound when no summary exists for the pair.
type SummaryStore interface {
	GetSummary(ctx context.Context, date time.Time, scope domain.Scope) (*domain.DailyUsageSummary, error)
	InsertSummary(ctx context.Context, summary *domain.DailyUsageSummary) (bool, error)
}

// MetricsStore answers the per-day aggregate queries.
type MetricsStore interface {
	UniqueVisitorCount(ctx context.Context, date time.Time) (int64, error)
	PageViewCount(ctx context.Context, date time.Time) (int64, error)
	StreamViewCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error)
	StreamViewerCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error)
	StreamContributorCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error)
	MessageCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error)
	AverageResponseTime(ctx context.Context, date time.Time, scope domain.Scope) (int64, error)
}

// ScopeSource lists the stream scopes to summarize.
type ScopeSource interface {
	ListStreamScopeIDs(ctx context.Context) ([]int64, error)
}

// UsageCleaner deletes raw usage data outside the retention window. The cutoff
// is owned by the cleaner.
type UsageCleaner interface {
	CleanupOldUsageData(ctx context.Context, cutoff int) error
}

// Locker serializes runs across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Dependencies groups the collaborators of a Generator. Locker is optional.
type Dependencies struct {
	Dates     DateStrategy
	Weekdays  WeekdayStrategy
	Summaries SummaryStore
	Metrics   MetricsStore
	Scopes    ScopeSource
	Cleaner   UsageCleaner
	Locker    Locker
}

// cleanupCutoff is handed to the cleaner unchanged; the cleaner applies its own window.
const cleanupCutoff = 0

const lockKey = "usage:daily-summary"

// Result describes a finished run.
type Result struct {
	Date      time.Time
	Scopes    int
	Generated int
	Skipped   int
}

// Generator builds daily usage summaries.
type Generator struct {
	deps   Dependencies
	logger zerolog.Logger
}

// NewGenerator validates the dependencies and constructs a Generator.
func NewGenerator(deps Dependencies, logger zerolog.Logger) (*Generator, error) {
	switch {
	case deps.Dates == nil:
		return nil, errors.New("usage: date strategy is required")
	case deps.Weekdays == nil:
		return nil, errors.New("usage: weekday strategy is required")
	case deps.Summaries == nil:
		return nil, errors.New("usage: summary store is required")
	case deps.Metrics == nil:
		return nil, errors.New("usage: metrics store is required")
	case deps.Scopes == nil:
		return nil, errors.New("usage: scope source is required")
	case deps.Cleaner == nil:
		return nil, errors.New("usage: usage cleaner is required")
	}
	return &Generator{deps: deps, logger: logger}, nil
}

// Run generates the summaries for yesterday.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	return g.RunForDate(ctx, g.deps.Dates.DaysAgo(1))
}

// RunForDate generates the system summary and every stream scope summary for
// date, then triggers the raw usage cleanup. The first failure aborts the run;
// summaries inserted before it are kept.
func (g *Generator) RunForDate(ctx context.Context, date time.Time) (res Result, err error) {
	date = domain.Day(date)
	res.Date = date
	if err := g.checkFinished(date); err != nil {
		return res, err
	}
	start := time.Now()
	defer func() {
		telemetry.SummaryRunDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			outcome = "locked"
		case err != nil:
			outcome = "failure"
		}
		telemetry.SummaryRuns.WithLabelValues(outcome).Inc()
	}()

	if g.deps.Locker != nil {
		release, lockErr := g.deps.Locker.Acquire(ctx, lockKey)
		if lockErr != nil {
			return res, lockErr
		}
		defer release()
	}

	log := g.logger.With().Str("date", date.Format(domain.DateLayout)).Logger()

	if err := g.accumulate(ctx, &res, date, domain.SystemScope()); err != nil {
		return res, err
	}

	ids, err := g.deps.Scopes.ListStreamScopeIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list stream scopes: %w", err)
	}
	for _, id := range ids {
		if err := g.accumulate(ctx, &res, date, domain.StreamScope(id)); err != nil {
			return res, err
		}
	}

	log.Info().Msg("usage: deleting old usage metric data")
	if err := g.deps.Cleaner.CleanupOldUsageData(ctx, cleanupCutoff); err != nil {
		return res, fmt.Errorf("cleanup usage data: %w", err)
	}

	log.Info().
		Int("scopes", res.Scopes).
		Int("generated", res.Generated).
		Int("skipped", res.Skipped).
		Msg("usage: daily summary metrics generated")
	return res, nil
}

func (g *Generator) accumulate(ctx context.Context, res *Result, date time.Time, scope domain.Scope) error {
	res.Scopes++
	created, err := g.generateOne(ctx, date, scope)
	if err != nil {
		return err
	}
	if created {
		res.Generated++
	} else {
		res.Skipped++
	}
	return nil
}

// GenerateOne builds and inserts the summary for a single (date, scope) pair.
// It returns false without querying any metric when the summary already exists.
func (g *Generator) GenerateOne(ctx context.Context, date time.Time, scope domain.Scope) (bool, error) {
	date = domain.Day(date)
	if err := g.checkFinished(date); err != nil {
		return false, err
	}
	return g.generateOne(ctx, date, scope)
}

// checkFinished rejects today and later days.
func (g *Generator) checkFinished(date time.Time) error {
	if today := g.deps.Dates.DaysAgo(0); !date.Before(today) {
		return fmt.Errorf("%w: %s has not finished yet", domain.ErrInvalidDate, date.Format(domain.DateLayout))
	}
	return nil
}

func (g *Generator) generateOne(ctx context.Context, date time.Time, scope domain.Scope) (bool, error) {
	log := g.logger.With().
		Str("date", date.Format(domain.DateLayout)).
		Str("scope", scope.String()).
		Logger()

	_, err := g.deps.Summaries.GetSummary(ctx, date, scope)
	switch {
	case err == nil:
		log.Info().Msg("usage: summary already exists, skipping")
		telemetry.SummariesSkipped.WithLabelValues(scopeKind(scope)).Inc()
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("get summary %s: %w", scope, err)
	}

	log.Info().Msg("usage: generating summary")
	summary := &domain.DailyUsageSummary{Date: date, Scope: scope}

	if scope.IsSystem() {
		if summary.UniqueVisitorCount, err = g.metric(ctx, log, "unique_visitors", func() (int64, error) {
			return g.deps.Metrics.UniqueVisitorCount(ctx, date)
		}); err != nil {
			return false, err
		}
		if summary.PageViewCount, err = g.metric(ctx, log, "page_views", func() (int64, error) {
			return g.deps.Metrics.PageViewCount(ctx, date)
		}); err != nil {
			return false, err
		}
	}

	scoped := []struct {
		name  string
		dest  *int64
		query func(context.Context, time.Time, domain.Scope) (int64, error)
	}{
		{"stream_views", &summary.StreamViewCount, g.deps.Metrics.StreamViewCount},
		{"stream_viewers", &summary.StreamViewerCount, g.deps.Metrics.StreamViewerCount},
		{"stream_contributors", &summary.StreamContributorCount, g.deps.Metrics.StreamContributorCount},
		{"messages", &summary.MessageCount, g.deps.Metrics.MessageCount},
		{"average_response_time", &summary.AverageResponseTime, g.deps.Metrics.AverageResponseTime},
	}
	for _, m := range scoped {
		if *m.dest, err = g.metric(ctx, log, m.name, func() (int64, error) {
			return m.query(ctx, date, scope)
		}); err != nil {
			return false, err
		}
	}

	summary.IsWeekday = g.deps.Weekdays.IsWeekday(date)

	log.Info().Msg("usage: inserting summary")
	inserted, err := g.deps.Summaries.InsertSummary(ctx, summary)
	if err != nil {
		return false, fmt.Errorf("insert summary %s: %w", scope, err)
	}
	if !inserted {
		// Lost a race with a concurrent run; the row is there either way.
		log.Warn().Msg("usage: summary inserted concurrently, skipping")
		telemetry.SummariesSkipped.WithLabelValues(scopeKind(scope)).Inc()
		return false, nil
	}
	telemetry.SummariesGenerated.WithLabelValues(scopeKind(scope)).Inc()
	return true, nil
}

func (g *Generator) metric(ctx context.Context, log zerolog.Logger, name string, query func() (int64, error)) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	log.Debug().Str("metric", name).Msg("usage: computing metric")
	v, err := query()
	if err != nil {
		return 0, fmt.Errorf("compute %s: %w", name, err)
	}
	return v, nil
}

func scopeKind(scope domain.Scope) string {
	if scope.IsSystem() {
		return "system"
	}
	return "stream"
}
