package domain

import (
	"context"
	"time"
)

// SummaryRepository reads and stores daily usage summaries.
type SummaryRepository interface {
	GetSummary(ctx context.Context, date time.Time, scope Scope) (*DailyUsageSummary, error)
	InsertSummary(ctx context.Context, summary *DailyUsageSummary) (bool, error)
	ListSummaries(ctx context.Context, from, to time.Time, scope *Scope) ([]DailyUsageSummary, error)
}

// UsageEventRepository persists raw usage metrics.
type UsageEventRepository interface {
	Record(ctx context.Context, event *UsageEvent) error
}
