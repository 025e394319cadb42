package domain

import (
	"fmt"
	"time"
)

// Scope identifies what a daily usage summary describes: either the whole
// system or a single stream scope.
type Scope struct {
	streamScopeID int64
	stream        bool
}

// SystemScope returns the whole-system pseudo-scope.
func SystemScope() Scope {
	return Scope{}
}

// StreamScope returns the scope of a single stream.
func StreamScope(id int64) Scope {
	return Scope{streamScopeID: id, stream: true}
}

// IsSystem reports whether the scope covers the whole system.
func (s Scope) IsSystem() bool {
	return !s.stream
}

// StreamScopeID returns the stream scope id and true for stream scopes.
func (s Scope) StreamScopeID() (int64, bool) {
	return s.streamScopeID, s.stream
}

func (s Scope) String() string {
	if !s.stream {
		return "system"
	}
	return fmt.Sprintf("stream_scope:%d", s.streamScopeID)
}

// DailyUsageSummary stores the aggregated usage metrics of one day for one scope.
// UniqueVisitorCount and PageViewCount are only meaningful for the system scope.
type DailyUsageSummary struct {
	Date                   time.Time
	Scope                  Scope
	UniqueVisitorCount     int64
	PageViewCount          int64
	StreamViewCount        int64
	StreamViewerCount      int64
	StreamContributorCount int64
	MessageCount           int64
	AverageResponseTime    int64
	IsWeekday              bool
	CreatedAt              time.Time
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire and CLI representation of a summary date.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return t, nil
}
