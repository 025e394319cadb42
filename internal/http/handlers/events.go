package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"usagesummary/internal/domain"
	"usagesummary/internal/middleware"
	"usagesummary/internal/telemetry"
)

type eventRequest struct {
	PersonID      int64  `json:"person_id"`
	PageView      bool   `json:"page_view"`
	StreamView    bool   `json:"stream_view"`
	StreamScopeID *int64 `json:"stream_scope_id"`
}

// RecordEvent serves POST /v1/usage/events.
func (a *App) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.PersonID <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "person_id must be positive")
		return
	}

	event := &domain.UsageEvent{
		PersonID:     req.PersonID,
		IsPageView:   req.PageView,
		IsStreamView: req.StreamView,
		Country:      middleware.CountryFromContext(r.Context()),
	}
	if req.StreamScopeID != nil {
		if *req.StreamScopeID <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "stream_scope_id must be positive")
			return
		}
		scope := domain.StreamScope(*req.StreamScopeID)
		event.StreamScope = &scope
	}

	if err := a.Events.Record(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrInvalidEvent) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Int64("person_id", req.PersonID).Msg("http: record usage event failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record event")
		return
	}

	if event.IsPageView {
		telemetry.UsageEventsRecorded.WithLabelValues("page_view").Inc()
	}
	if event.IsStreamView {
		telemetry.UsageEventsRecorded.WithLabelValues("stream_view").Inc()
	}
	a.json(w, http.StatusCreated, map[string]any{
		"id":      event.ID,
		"country": event.Country,
	})
}
