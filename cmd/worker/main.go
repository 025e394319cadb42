package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"usagesummary/internal/app"
	"usagesummary/internal/domain"
	"usagesummary/internal/infra"
	"usagesummary/internal/usage"
)

type summaryRunner interface {
	Run(ctx context.Context) (usage.Result, error)
}

type summaryWorker struct {
	ctx        context.Context
	runner     summaryRunner
	logger     infra.Logger
	loc        *time.Location
	runHour    int
	runOnStart bool
	now        func() time.Time
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to initialise services")
	}
	defer svc.Close()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid timezone")
	}

	worker := &summaryWorker{
		ctx:        ctx,
		runner:     svc.Generator,
		logger:     logger,
		loc:        loc,
		runHour:    cfg.Usage.RunHour,
		runOnStart: cfg.Usage.RunOnStart,
		now:        time.Now,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *summaryWorker) Run() error {
	w.logger.Info().Int("run_hour", w.runHour).Str("timezone", w.loc.String()).Msg("worker: started")
	if w.runOnStart {
		w.runOnce()
	}
	for {
		next := nextRun(w.now(), w.loc, w.runHour)
		w.logger.Info().Time("next_run", next).Msg("worker: waiting")
		timer := time.NewTimer(time.Until(next))
		select {
		case <-w.ctx.Done():
			timer.Stop()
			return w.ctx.Err()
		case <-timer.C:
		}
		w.runOnce()
	}
}

// runOnce executes one run and reports whether it finished.
func (w *summaryWorker) runOnce() bool {
	res, err := w.runner.Run(w.ctx)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		w.logger.Info().Msg("worker: another process holds the summary lock, skipping")
		return false
	case err != nil:
		w.logger.Error().Err(err).Msg("worker: daily summary run failed")
		return false
	}
	w.logger.Info().
		Str("date", res.Date.Format(domain.DateLayout)).
		Int("scopes", res.Scopes).
		Int("generated", res.Generated).
		Int("skipped", res.Skipped).
		Msg("worker: daily summary run finished")
	return true
}

// nextRun returns the first instant strictly after now at hour:00 in loc.
func nextRun(now time.Time, loc *time.Location, hour int) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}
