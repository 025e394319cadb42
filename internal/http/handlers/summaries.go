package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"usagesummary/internal/domain"
	"usagesummary/internal/middleware"
	"usagesummary/internal/usage"
)

const (
	defaultListDays = 30
	maxListDays     = 366
)

// SummaryResponse is the JSON shape of a daily usage summary.
type SummaryResponse struct {
	Date                   string    `json:"date"`
	Scope                  string    `json:"scope"`
	StreamScopeID          *int64    `json:"stream_scope_id"`
	UniqueVisitorCount     int64     `json:"unique_visitor_count"`
	PageViewCount          int64     `json:"page_view_count"`
	StreamViewCount        int64     `json:"stream_view_count"`
	StreamViewerCount      int64     `json:"stream_viewer_count"`
	StreamContributorCount int64     `json:"stream_contributor_count"`
	MessageCount           int64     `json:"message_count"`
	AverageResponseTime    int64     `json:"average_response_time"`
	IsWeekday              bool      `json:"is_weekday"`
	CreatedAt              time.Time `json:"created_at"`
}

// NewSummaryResponse maps a summary onto its JSON representation.
func NewSummaryResponse(s domain.DailyUsageSummary) SummaryResponse {
	out := SummaryResponse{
		Date:                   s.Date.Format(domain.DateLayout),
		Scope:                  s.Scope.String(),
		UniqueVisitorCount:     s.UniqueVisitorCount,
		PageViewCount:          s.PageViewCount,
		StreamViewCount:        s.StreamViewCount,
		StreamViewerCount:      s.StreamViewerCount,
		StreamContributorCount: s.StreamContributorCount,
		MessageCount:           s.MessageCount,
		AverageResponseTime:    s.AverageResponseTime,
		IsWeekday:              s.IsWeekday,
		CreatedAt:              s.CreatedAt,
	}
	if id, ok := s.Scope.StreamScopeID(); ok {
		out.StreamScopeID = &id
	}
	return out
}

// ListSummaries serves GET /v1/usage/summaries.
func (a *App) ListSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	to := domain.Day(a.now().UTC()).AddDate(0, 0, -1)
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		parsed, err := domain.ParseDate(v)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -(defaultListDays - 1))
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		parsed, err := domain.ParseDate(v)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if from.After(to) {
		a.error(w, http.StatusBadRequest, "bad_request", "from must not be after to")
		return
	}
	if to.Sub(from) >= maxListDays*24*time.Hour {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("range must not exceed %d days", maxListDays))
		return
	}

	scope, err := ParseScope(q.Get("scope"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	summaries, err := a.Summaries.ListSummaries(r.Context(), from, to, scope)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: list summaries failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load summaries")
		return
	}

	items := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, NewSummaryResponse(s))
	}
	a.json(w, http.StatusOK, map[string]any{
		"from":  from.Format(domain.DateLayout),
		"to":    to.Format(domain.DateLayout),
		"items": items,
	})
}

// ParseScope reads a scope filter: empty means every scope, "system" the
// system scope, and a positive integer a stream scope id.
func ParseScope(v string) (*domain.Scope, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return nil, nil
	case strings.EqualFold(v, "system"):
		s := domain.SystemScope()
		return &s, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidScope, v)
	}
	s := domain.StreamScope(id)
	return &s, nil
}

type generateRequest struct {
	Date string `json:"date"`
}

// GenerateSummaries serves POST /v1/usage/summaries/generate.
func (a *App) GenerateSummaries(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	log := a.Logger.With().Str("operator", middleware.SubjectFromContext(r.Context())).Logger()

	var date time.Time
	if v := strings.TrimSpace(req.Date); v != "" {
		parsed, err := domain.ParseDate(v)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	var (
		res usage.Result
		err error
	)
	if date.IsZero() {
		res, err = a.Runner.Run(r.Context())
	} else {
		res, err = a.Runner.RunForDate(r.Context(), date)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		a.error(w, http.StatusBadRequest, "bad_request", "date must be a finished day")
		return
	case errors.Is(err, domain.ErrRunInProgress):
		a.error(w, http.StatusConflict, "conflict", "a summary run is already in progress")
		return
	case err != nil:
		log.Error().Err(err).Msg("http: summary generation failed")
		a.error(w, http.StatusInternalServerError, "internal", "summary generation failed")
		return
	}

	log.Info().
		Str("date", res.Date.Format(domain.DateLayout)).
		Int("generated", res.Generated).
		Int("skipped", res.Skipped).
		Msg("http: summaries generated")
	a.json(w, http.StatusOK, map[string]any{
		"date":      res.Date.Format(domain.DateLayout),
		"scopes":    res.Scopes,
		"generated": res.Generated,
		"skipped":   res.Skipped,
	})
}
