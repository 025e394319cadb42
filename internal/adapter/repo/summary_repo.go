package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"usagesummary/internal/domain"
	"usagesummary/internal/infra"
	"usagesummary/internal/sqlinline"
)

// SummaryRepositoryPG stores daily usage summaries and answers the metric
// queries they are built from.
type SummaryRepositoryPG struct {
	sql           infra.SQLExecutor
	retentionDays int
	loc           *time.Location
}

// NewSummaryRepository constructs the repository. retentionDays is the window
// applied by CleanupOldUsageData when the caller passes no cutoff; loc is the
// timezone whose calendar days the metric queries cover (UTC when nil).
func NewSummaryRepository(sql infra.SQLExecutor, retentionDays int, loc *time.Location) *SummaryRepositoryPG {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryRepositoryPG{sql: sql, retentionDays: retentionDays, loc: loc}
}

// dayWindow returns [start, end) of the calendar day of date in r.loc.
func (r *SummaryRepositoryPG) dayWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 0, 1)
}

// GetSummary loads the summary for (date, scope) or returns domain.ErrNotFound.
func (r *SummaryRepositoryPG) GetSummary(ctx context.Context, date time.Time, scope domain.Scope) (*domain.DailyUsageSummary, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectDailySummary, date, scopeParam(scope))
	summary, err := scanSummary(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return summary, nil
}

// InsertSummary inserts the summary and reports whether a row was written.
// A summary that already exists for (date, scope) is left untouched.
func (r *SummaryRepositoryPG) InsertSummary(ctx context.Context, s *domain.DailyUsageSummary) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertDailySummary,
		s.Date,
		scopeParam(s.Scope),
		s.UniqueVisitorCount,
		s.PageViewCount,
		s.StreamViewCount,
		s.StreamViewerCount,
		s.StreamContributorCount,
		s.MessageCount,
		s.AverageResponseTime,
		s.IsWeekday,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListSummaries returns the summaries between from and to inclusive, optionally
// restricted to a single scope.
func (r *SummaryRepositoryPG) ListSummaries(ctx context.Context, from, to time.Time, scope *domain.Scope) ([]domain.DailyUsageSummary, error) {
	var filter bool
	var id *int64
	if scope != nil {
		filter = true
		id = scopeParam(*scope)
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDailySummaries, from, to, filter, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyUsageSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SummaryRepositoryPG) UniqueVisitorCount(ctx context.Context, date time.Time) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyUniqueVisitorCount, start, end)
}

func (r *SummaryRepositoryPG) PageViewCount(ctx context.Context, date time.Time) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyPageViewCount, start, end)
}

func (r *SummaryRepositoryPG) StreamViewCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyStreamViewCount, start, end, scopeParam(scope))
}

func (r *SummaryRepositoryPG) StreamViewerCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyStreamViewerCount, start, end, scopeParam(scope))
}

func (r *SummaryRepositoryPG) StreamContributorCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyStreamContributorCount, start, end, scopeParam(scope))
}

func (r *SummaryRepositoryPG) MessageCount(ctx context.Context, date time.Time, scope domain.Scope) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyMessageCount, start, end, scopeParam(scope))
}

// AverageResponseTime returns the mean minutes between an activity and its
// first same-day comment.
func (r *SummaryRepositoryPG) AverageResponseTime(ctx context.Context, date time.Time, scope domain.Scope) (int64, error) {
	start, end := r.dayWindow(date)
	return r.count(ctx, sqlinline.QDailyMessageResponseTime, start, end, scopeParam(scope))
}

// ListStreamScopeIDs returns every stream scope id.
func (r *SummaryRepositoryPG) ListStreamScopeIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListStreamScopeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CleanupOldUsageData deletes raw usage metrics older than cutoff days. A
// cutoff of zero or less applies the configured retention window.
func (r *SummaryRepositoryPG) CleanupOldUsageData(ctx context.Context, cutoff int) error {
	days := cutoff
	if days <= 0 {
		days = r.retentionDays
	}
	if days <= 0 {
		return fmt.Errorf("cleanup usage data: no retention window configured")
	}
	_, err := r.sql.Exec(ctx, sqlinline.QDeleteOldUsageMetrics, days)
	return err
}

func (r *SummaryRepositoryPG) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.sql.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scopeParam(scope domain.Scope) *int64 {
	id, ok := scope.StreamScopeID()
	if !ok {
		return nil
	}
	return &id
}

func scanSummary(row pgx.Row) (*domain.DailyUsageSummary, error) {
	var (
		s       domain.DailyUsageSummary
		scopeID *int64
	)
	if err := row.Scan(
		&s.Date,
		&scopeID,
		&s.UniqueVisitorCount,
		&s.PageViewCount,
		&s.StreamViewCount,
		&s.StreamViewerCount,
		&s.StreamContributorCount,
		&s.MessageCount,
		&s.AverageResponseTime,
		&s.IsWeekday,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Scope = domain.SystemScope()
	if scopeID != nil {
		s.Scope = domain.StreamScope(*scopeID)
	}
	return &s, nil
}

var _ domain.SummaryRepository = (*SummaryRepositoryPG)(nil)
