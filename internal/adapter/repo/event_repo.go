package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"usagesummary/internal/domain"
	"usagesummary/internal/infra"
	"usagesummary/internal/sqlinline"
)

// EventRepositoryPG records raw usage metrics.
type EventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewEventRepository constructs the repository.
func NewEventRepository(sql infra.SQLExecutor) *EventRepositoryPG {
	return &EventRepositoryPG{sql: sql}
}

// Record inserts the event, assigning an id when it has none.
func (r *EventRepositoryPG) Record(ctx context.Context, event *domain.UsageEvent) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", domain.ErrInvalidEvent)
	}
	if !event.IsPageView && !event.IsStreamView {
		return fmt.Errorf("%w: neither a page view nor a stream view", domain.ErrInvalidEvent)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	var scopeID *int64
	if event.StreamScope != nil {
		scopeID = scopeParam(*event.StreamScope)
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageMetric,
		event.ID,
		event.PersonID,
		event.IsPageView,
		event.IsStreamView,
		scopeID,
		event.Country,
	)
	return err
}

var _ domain.UsageEventRepository = (*EventRepositoryPG)(nil)
