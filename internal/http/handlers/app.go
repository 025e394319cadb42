package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"usagesummary/internal/domain"
	"usagesummary/internal/usage"
)

// SummaryRunner triggers summary generation.
type SummaryRunner interface {
	Run(ctx context.Context) (usage.Result, error)
	RunForDate(ctx context.Context, date time.Time) (usage.Result, error)
}

type App struct {
	Summaries domain.SummaryRepository
	Events    domain.UsageEventRepository
	Runner    SummaryRunner
	// Ping reports database health; nil skips the check.
	Ping   func(ctx context.Context) error
	Logger zerolog.Logger
	Now    func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{
			"code":    errCode,
			"message": message,
		},
	})
}
