package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"usagesummary/internal/domain"
)

var testDate = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

// fixedDates pins "today" to the day after testDate.
type fixedDates struct {
	today time.Time
	calls []int
}

func (f *fixedDates) DaysAgo(n int) time.Time {
	f.calls = append(f.calls, n)
	return f.today.AddDate(0, 0, -n)
}

type weekdays bool

func (w weekdays) IsWeekday(time.Time) bool { return bool(w) }

type fakeStore struct {
	existing map[domain.Scope]bool
	inserted []domain.DailyUsageSummary
	getErr   error
	events   *[]string
}

func (f *fakeStore) GetSummary(_ context.Context, _ time.Time, scope domain.Scope) (*domain.DailyUsageSummary, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.existing[scope] {
		return &domain.DailyUsageSummary{Scope: scope}, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) InsertSummary(_ context.Context, s *domain.DailyUsageSummary) (bool, error) {
	f.inserted = append(f.inserted, *s)
	if f.events != nil {
		*f.events = append(*f.events, "insert:"+s.Scope.String())
	}
	return true, nil
}

type fakeMetrics struct {
	calls    int
	messages map[domain.Scope]int64
	failOn   map[domain.Scope]error
}

func (f *fakeMetrics) UniqueVisitorCount(context.Context, time.Time) (int64, error) {
	f.calls++
	return 100, nil
}

func (f *fakeMetrics) PageViewCount(context.Context, time.Time) (int64, error) {
	f.calls++
	return 200, nil
}

func (f *fakeMetrics) scoped(scope domain.Scope, v int64) (int64, error) {
	f.calls++
	if err := f.failOn[scope]; err != nil {
		return 0, err
	}
	return v, nil
}

func (f *fakeMetrics) StreamViewCount(_ context.Context, _ time.Time, s domain.Scope) (int64, error) {
	return f.scoped(s, 3)
}

func (f *fakeMetrics) StreamViewerCount(_ context.Context, _ time.Time, s domain.Scope) (int64, error) {
	return f.scoped(s, 4)
}

func (f *fakeMetrics) StreamContributorCount(_ context.Context, _ time.Time, s domain.Scope) (int64, error) {
	return f.scoped(s, 5)
}

func (f *fakeMetrics) MessageCount(_ context.Context, _ time.Time, s domain.Scope) (int64, error) {
	return f.scoped(s, f.messages[s])
}

func (f *fakeMetrics) AverageResponseTime(_ context.Context, _ time.Time, s domain.Scope) (int64, error) {
	return f.scoped(s, 7)
}

type fakeScopes struct {
	ids []int64
	err error
}

func (f fakeScopes) ListStreamScopeIDs(context.Context) ([]int64, error) { return f.ids, f.err }

type fakeCleaner struct {
	cutoffs []int
	err     error
	events  *[]string
}

func (f *fakeCleaner) CleanupOldUsageData(_ context.Context, cutoff int) error {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.events != nil {
		*f.events = append(*f.events, "cleanup")
	}
	return f.err
}

type fixture struct {
	dates   *fixedDates
	store   *fakeStore
	metrics *fakeMetrics
	cleaner *fakeCleaner
	events  []string
	gen     *Generator
}

func newFixture(t *testing.T, ids []int64, weekday bool) *fixture {
	t.Helper()
	f := &fixture{
		dates:   &fixedDates{today: testDate.AddDate(0, 0, 1)},
		metrics: &fakeMetrics{messages: map[domain.Scope]int64{}, failOn: map[domain.Scope]error{}},
	}
	f.store = &fakeStore{existing: map[domain.Scope]bool{}, events: &f.events}
	f.cleaner = &fakeCleaner{events: &f.events}
	gen, err := NewGenerator(Dependencies{
		Dates:     f.dates,
		Weekdays:  weekdays(weekday),
		Summaries: f.store,
		Metrics:   f.metrics,
		Scopes:    fakeScopes{ids: ids},
		Cleaner:   f.cleaner,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGenerator error: %v", err)
	}
	f.gen = gen
	return f
}

func TestRunGeneratesSystemAndEveryScope(t *testing.T) {
	f := newFixture(t, []int64{10, 20}, true)
	f.metrics.messages[domain.SystemScope()] = 14
	f.metrics.messages[domain.StreamScope(10)] = 5
	f.metrics.messages[domain.StreamScope(20)] = 9

	res, err := f.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(f.dates.calls) == 0 || f.dates.calls[0] != 1 {
		t.Fatalf("expected DaysAgo(1) first, got %v", f.dates.calls)
	}
	if res.Generated != 3 || res.Skipped != 0 || res.Scopes != 3 || !res.Date.Equal(testDate) {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(f.store.inserted) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(f.store.inserted))
	}

	want := []struct {
		scope    domain.Scope
		messages int64
	}{
		{domain.SystemScope(), 14},
		{domain.StreamScope(10), 5},
		{domain.StreamScope(20), 9},
	}
	for i, w := range want {
		got := f.store.inserted[i]
		if got.Scope != w.scope {
			t.Fatalf("summary %d scope = %s, want %s", i, got.Scope, w.scope)
		}
		if got.MessageCount != w.messages {
			t.Fatalf("summary %d messages = %d, want %d", i, got.MessageCount, w.messages)
		}
		if !got.Date.Equal(testDate) || !got.IsWeekday {
			t.Fatalf("summary %d has date %v weekday %v", i, got.Date, got.IsWeekday)
		}
	}

	events := []string{"insert:system", "insert:stream_scope:10", "insert:stream_scope:20", "cleanup"}
	if len(f.events) != len(events) {
		t.Fatalf("events = %v, want %v", f.events, events)
	}
	for i := range events {
		if f.events[i] != events[i] {
			t.Fatalf("events = %v, want %v", f.events, events)
		}
	}
	if len(f.cleaner.cutoffs) != 1 || f.cleaner.cutoffs[0] != 0 {
		t.Fatalf("expected a single cleanup with cutoff 0, got %v", f.cleaner.cutoffs)
	}
}

func TestRunProducesOneSummaryPerScope(t *testing.T) {
	f := newFixture(t, []int64{1, 2, 3}, true)
	if _, err := f.gen.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(f.store.inserted) != 4 {
		t.Fatalf("expected 4 summaries, got %d", len(f.store.inserted))
	}
	seen := map[domain.Scope]int{}
	for _, s := range f.store.inserted {
		seen[s.Scope]++
	}
	for _, scope := range []domain.Scope{domain.SystemScope(), domain.StreamScope(1), domain.StreamScope(2), domain.StreamScope(3)} {
		if seen[scope] != 1 {
			t.Fatalf("scope %s inserted %d times", scope, seen[scope])
		}
	}
}

func TestStreamScopesLeaveSystemOnlyFieldsZero(t *testing.T) {
	f := newFixture(t, []int64{7}, false)
	if _, err := f.gen.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	sys, stream := f.store.inserted[0], f.store.inserted[1]
	if sys.UniqueVisitorCount != 100 || sys.PageViewCount != 200 {
		t.Fatalf("system summary missing system-wide metrics: %+v", sys)
	}
	if stream.UniqueVisitorCount != 0 || stream.PageViewCount != 0 {
		t.Fatalf("stream summary carries system-wide metrics: %+v", stream)
	}
	if stream.StreamViewCount != 3 || stream.StreamViewerCount != 4 || stream.StreamContributorCount != 5 || stream.AverageResponseTime != 7 {
		t.Fatalf("unexpected stream metrics: %+v", stream)
	}
	if stream.IsWeekday {
		t.Fatal("expected weekend classification")
	}
}

func TestGenerateOneSkipsExistingSummary(t *testing.T) {
	f := newFixture(t, nil, true)
	f.store.existing[domain.StreamScope(5)] = true

	created, err := f.gen.GenerateOne(context.Background(), testDate, domain.StreamScope(5))
	if err != nil {
		t.Fatalf("GenerateOne error: %v", err)
	}
	if created {
		t.Fatal("expected existing summary to be skipped")
	}
	if f.metrics.calls != 0 {
		t.Fatalf("expected no metric queries, got %d", f.metrics.calls)
	}
	if len(f.store.inserted) != 0 {
		t.Fatalf("expected no inserts, got %d", len(f.store.inserted))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t, []int64{10}, true)
	if _, err := f.gen.Run(context.Background()); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	for _, s := range f.store.inserted {
		f.store.existing[s.Scope] = true
	}
	f.metrics.calls = 0

	res, err := f.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if res.Generated != 0 || res.Skipped != 2 {
		t.Fatalf("unexpected second result %+v", res)
	}
	if f.metrics.calls != 0 || len(f.store.inserted) != 2 {
		t.Fatalf("second run queried %d metrics and inserted %d rows", f.metrics.calls, len(f.store.inserted)-2)
	}
	if len(f.cleaner.cutoffs) != 2 {
		t.Fatalf("expected cleanup on every run, got %d", len(f.cleaner.cutoffs))
	}
}

func TestRunAbortsOnScopeFailure(t *testing.T) {
	f := newFixture(t, []int64{1, 2, 3}, true)
	boom := errors.New("boom")
	f.metrics.failOn[domain.StreamScope(2)] = boom

	_, err := f.gen.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(f.store.inserted) != 2 {
		t.Fatalf("expected system and scope 1 to stay inserted, got %d", len(f.store.inserted))
	}
	if f.store.inserted[1].Scope != domain.StreamScope(1) {
		t.Fatalf("unexpected second insert %s", f.store.inserted[1].Scope)
	}
	if len(f.cleaner.cutoffs) != 0 {
		t.Fatal("cleanup must not run after a failure")
	}
}

func TestRunReportsCleanupFailure(t *testing.T) {
	f := newFixture(t, nil, true)
	f.cleaner.err = errors.New("disk full")
	if _, err := f.gen.Run(context.Background()); err == nil {
		t.Fatal("expected cleanup failure to fail the run")
	}
	if len(f.store.inserted) != 1 {
		t.Fatalf("expected system summary to be inserted, got %d", len(f.store.inserted))
	}
}

func TestRunFailsWhenLookupFails(t *testing.T) {
	f := newFixture(t, []int64{1}, true)
	f.store.getErr = errors.New("db down")
	if _, err := f.gen.Run(context.Background()); err == nil {
		t.Fatal("expected lookup failure")
	}
	if f.metrics.calls != 0 || len(f.store.inserted) != 0 {
		t.Fatal("expected no work after a failed lookup")
	}
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, domain.ErrRunInProgress
}

func TestRunHonorsLocker(t *testing.T) {
	f := newFixture(t, []int64{1}, true)
	f.gen.deps.Locker = busyLocker{}
	if _, err := f.gen.Run(context.Background()); !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if len(f.store.inserted) != 0 {
		t.Fatal("expected no inserts while locked")
	}
}

func TestNewGeneratorRequiresDependencies(t *testing.T) {
	if _, err := NewGenerator(Dependencies{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestRejectsUnfinishedDays(t *testing.T) {
	today := testDate.AddDate(0, 0, 1)
	for _, date := range []time.Time{today, today.Add(9 * time.Hour), today.AddDate(0, 0, 3)} {
		f := newFixture(t, []int64{1}, true)

		if _, err := f.gen.RunForDate(context.Background(), date); !errors.Is(err, domain.ErrInvalidDate) {
			t.Fatalf("RunForDate(%s) error = %v, want ErrInvalidDate", date, err)
		}
		if _, err := f.gen.GenerateOne(context.Background(), date, domain.SystemScope()); !errors.Is(err, domain.ErrInvalidDate) {
			t.Fatalf("GenerateOne(%s) error = %v, want ErrInvalidDate", date, err)
		}
		if f.metrics.calls != 0 || len(f.store.inserted) != 0 || len(f.events) != 0 {
			t.Fatalf("unfinished day %s touched the stores", date)
		}
	}
}

func TestAcceptsYesterdayForGenerateOne(t *testing.T) {
	f := newFixture(t, nil, true)
	created, err := f.gen.GenerateOne(context.Background(), testDate, domain.SystemScope())
	if err != nil || !created {
		t.Fatalf("GenerateOne(yesterday) = %v, %v", created, err)
	}
}
