// Package app wires the usage summary components shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"usagesummary/internal/adapter/repo"
	"usagesummary/internal/calendar"
	"usagesummary/internal/infra"
	"usagesummary/internal/lock"
	"usagesummary/internal/usage"
)

// Services holds the connected collaborators of one process.
type Services struct {
	Pool      *pgxpool.Pool
	SQL       *infra.SQLRunner
	Summaries *repo.SummaryRepositoryPG
	Events    *repo.EventRepositoryPG
	Generator *usage.Generator

	redis *lock.RedisLocker
}

// Open connects Postgres (and Redis when configured) and builds the generator.
func Open(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Services, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc := &Services{Pool: pool}

	var locker usage.Locker = lock.Noop{}
	if cfg.RedisURL != "" {
		rl, err := lock.NewRedisLocker(ctx, cfg.RedisURL, cfg.Usage.LockTTL, logger)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.redis = rl
		locker = rl
	} else {
		logger.Warn().Msg("app: REDIS_URL not set, summary runs are not locked across processes")
	}

	loc, err := cfg.Location()
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.SQL = infra.NewSQLRunner(pool, logger)
	svc.Summaries = repo.NewSummaryRepository(svc.SQL, cfg.Usage.RetentionDays, loc)
	svc.Events = repo.NewEventRepository(svc.SQL)

	gen, err := NewGenerator(cfg, svc.Summaries, locker, logger)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Generator = gen
	return svc, nil
}

// NewGenerator builds the calendar strategies from cfg and assembles a
// generator over store.
func NewGenerator(cfg *infra.Config, store *repo.SummaryRepositoryPG, locker usage.Locker, logger zerolog.Logger) (*usage.Generator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	weekend, err := calendar.ParseWeekdays(cfg.Usage.WeekendDays)
	if err != nil {
		return nil, fmt.Errorf("USAGE_WEEKEND_DAYS: %w", err)
	}
	weekdays, err := calendar.NewDayOfWeek(cfg.Usage.Locale, weekend)
	if err != nil {
		return nil, err
	}
	return usage.NewGenerator(usage.Dependencies{
		Dates:     calendar.NewDaysAgo(nil, loc),
		Weekdays:  weekdays,
		Summaries: store,
		Metrics:   store,
		Scopes:    store,
		Cleaner:   store,
		Locker:    locker,
	}, logger)
}

// Ping checks database connectivity.
func (s *Services) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Close releases every connection.
func (s *Services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
