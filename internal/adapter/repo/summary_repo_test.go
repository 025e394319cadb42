package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"usagesummary/internal/domain"
	"usagesummary/internal/sqlinline"
)

var day = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func summaryRow(scopeID *int64, messages int64) []any {
	return []any{day, scopeID, int64(10), int64(20), int64(3), int64(2), int64(1), messages, int64(15), true, day}
}

func TestGetSummaryNotFound(t *testing.T) {
	repo := NewSummaryRepository(&stubExecutor{}, 60, nil)
	_, err := repo.GetSummary(context.Background(), day, domain.SystemScope())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSummaryScansSystemScope(t *testing.T) {
	exec := &stubExecutor{rows: map[string][]any{
		sqlinline.QSelectDailySummary: summaryRow(nil, 42),
	}}
	repo := NewSummaryRepository(exec, 60, nil)

	s, err := repo.GetSummary(context.Background(), day, domain.SystemScope())
	if err != nil {
		t.Fatalf("GetSummary error: %v", err)
	}
	if !s.Scope.IsSystem() || s.MessageCount != 42 || !s.IsWeekday {
		t.Fatalf("unexpected summary %+v", s)
	}
	if got := exec.queries[0].args[1].(*int64); got != nil {
		t.Fatalf("expected nil scope parameter, got %d", *got)
	}
}

func TestGetSummaryPassesStreamScope(t *testing.T) {
	id := int64(7)
	exec := &stubExecutor{rows: map[string][]any{
		sqlinline.QSelectDailySummary: summaryRow(&id, 1),
	}}
	repo := NewSummaryRepository(exec, 60, nil)

	s, err := repo.GetSummary(context.Background(), day, domain.StreamScope(7))
	if err != nil {
		t.Fatalf("GetSummary error: %v", err)
	}
	if s.Scope != domain.StreamScope(7) {
		t.Fatalf("unexpected scope %s", s.Scope)
	}
	arg := exec.queries[0].args[1].(*int64)
	if arg == nil || *arg != 7 {
		t.Fatalf("expected scope parameter 7, got %v", arg)
	}
}

func TestInsertSummary(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want bool
	}{
		{name: "inserted", tag: "INSERT 0 1", want: true},
		{name: "duplicate", tag: "INSERT 0 0", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{tag: tc.tag}
			repo := NewSummaryRepository(exec, 60, nil)
			got, err := repo.InsertSummary(context.Background(), &domain.DailyUsageSummary{
				Date:         day,
				Scope:        domain.StreamScope(3),
				MessageCount: 9,
				IsWeekday:    true,
			})
			if err != nil {
				t.Fatalf("InsertSummary error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("InsertSummary = %v, want %v", got, tc.want)
			}
			args := exec.execs[0].args
			if len(args) != 10 {
				t.Fatalf("expected 10 args, got %d", len(args))
			}
			if id := args[1].(*int64); id == nil || *id != 3 {
				t.Fatalf("unexpected scope arg %v", args[1])
			}
			if v := args[7].(int64); v != 9 {
				t.Fatalf("unexpected message count arg %d", v)
			}
		})
	}
}

func TestMetricQueriesUseScope(t *testing.T) {
	exec := &stubExecutor{rows: map[string][]any{
		sqlinline.QDailyMessageCount:       {int64(5)},
		sqlinline.QDailyUniqueVisitorCount: {int64(11)},
	}}
	repo := NewSummaryRepository(exec, 60, nil)

	n, err := repo.MessageCount(context.Background(), day, domain.StreamScope(10))
	if err != nil || n != 5 {
		t.Fatalf("MessageCount = %d, %v", n, err)
	}
	if id := exec.queries[0].args[2].(*int64); id == nil || *id != 10 {
		t.Fatalf("unexpected scope arg %v", exec.queries[0].args[2])
	}

	n, err = repo.UniqueVisitorCount(context.Background(), day)
	if err != nil || n != 11 {
		t.Fatalf("UniqueVisitorCount = %d, %v", n, err)
	}
	if len(exec.queries[1].args) != 2 {
		t.Fatalf("system-wide metric must only take the day window, got %d args", len(exec.queries[1].args))
	}
}

func TestMetricWindowFollowsLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	summaryDay := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		loc       *time.Location
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "utc",
			loc:       nil,
			wantStart: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "east of utc",
			loc:       tokyo,
			wantStart: time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC),
		},
		{
			name:      "west of utc",
			loc:       newYork,
			wantStart: time.Date(2024, 3, 14, 4, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 15, 4, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{rows: map[string][]any{
				sqlinline.QDailyPageViewCount:   {int64(1)},
				sqlinline.QDailyStreamViewCount: {int64(2)},
			}}
			repo := NewSummaryRepository(exec, 60, tc.loc)

			if _, err := repo.PageViewCount(context.Background(), summaryDay); err != nil {
				t.Fatalf("PageViewCount: %v", err)
			}
			if _, err := repo.StreamViewCount(context.Background(), summaryDay, domain.StreamScope(3)); err != nil {
				t.Fatalf("StreamViewCount: %v", err)
			}
			for _, q := range exec.queries {
				start, end := q.args[0].(time.Time), q.args[1].(time.Time)
				if !start.Equal(tc.wantStart) || !end.Equal(tc.wantEnd) {
					t.Fatalf("window = [%s, %s), want [%s, %s)", start.UTC(), end.UTC(), tc.wantStart, tc.wantEnd)
				}
			}
		})
	}
}

func TestListStreamScopeIDs(t *testing.T) {
	exec := &stubExecutor{sets: map[string][][]any{
		sqlinline.QListStreamScopeIDs: {{int64(10)}, {int64(20)}},
	}}
	repo := NewSummaryRepository(exec, 60, nil)

	ids, err := repo.ListStreamScopeIDs(context.Background())
	if err != nil {
		t.Fatalf("ListStreamScopeIDs error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestListSummariesFiltersScope(t *testing.T) {
	id := int64(4)
	exec := &stubExecutor{sets: map[string][][]any{
		sqlinline.QListDailySummaries: {summaryRow(&id, 2)},
	}}
	repo := NewSummaryRepository(exec, 60, nil)

	scope := domain.StreamScope(4)
	out, err := repo.ListSummaries(context.Background(), day, day, &scope)
	if err != nil {
		t.Fatalf("ListSummaries error: %v", err)
	}
	if len(out) != 1 || out[0].Scope != scope {
		t.Fatalf("unexpected summaries %+v", out)
	}
	args := exec.queries[0].args
	if filter := args[2].(bool); !filter {
		t.Fatal("expected scope filter to be enabled")
	}

	if _, err := repo.ListSummaries(context.Background(), day, day, nil); err != nil {
		t.Fatalf("ListSummaries error: %v", err)
	}
	if filter := exec.queries[1].args[2].(bool); filter {
		t.Fatal("expected scope filter to be disabled")
	}
}

func TestCleanupOldUsageData(t *testing.T) {
	tests := []struct {
		name   string
		cutoff int
		want   int
	}{
		{name: "zero uses retention", cutoff: 0, want: 60},
		{name: "negative uses retention", cutoff: -1, want: 60},
		{name: "explicit window", cutoff: 14, want: 14},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{tag: "DELETE 3"}
			repo := NewSummaryRepository(exec, 60, nil)
			if err := repo.CleanupOldUsageData(context.Background(), tc.cutoff); err != nil {
				t.Fatalf("CleanupOldUsageData error: %v", err)
			}
			if exec.execs[0].query != sqlinline.QDeleteOldUsageMetrics {
				t.Fatalf("unexpected query %q", exec.execs[0].query)
			}
			if got := exec.execs[0].args[0].(int); got != tc.want {
				t.Fatalf("retention days = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCleanupWithoutRetention(t *testing.T) {
	repo := NewSummaryRepository(&stubExecutor{}, 0, nil)
	if err := repo.CleanupOldUsageData(context.Background(), 0); err == nil {
		t.Fatal("expected error without a retention window")
	}
}
