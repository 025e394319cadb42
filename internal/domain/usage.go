package domain

import "time"

// UsageEvent is one raw usage metric: a page view and/or a stream view by a
// person. Rows are aggregated daily and removed by the retention cleanup.
type UsageEvent struct {
	ID           string
	PersonID     int64
	IsPageView   bool
	IsStreamView bool
	// StreamScope is nil when the event is not tied to a stream.
	StreamScope *Scope
	Country     string
	CreatedAt   time.Time
}
