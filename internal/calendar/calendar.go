// Package calendar provides the date strategies used by the daily usage
// summary job: "N days ago" and weekday classification.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Clock returns the current time.
type Clock func() time.Time

// DaysAgo computes calendar days relative to "today" in a fixed location.
type DaysAgo struct {
	now Clock
	loc *time.Location
}

// NewDaysAgo builds a DaysAgo strategy. A nil clock uses time.Now and a nil
// location uses UTC.
func NewDaysAgo(now Clock, loc *time.Location) *DaysAgo {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DaysAgo{now: now, loc: loc}
}

// DaysAgo returns the calendar day n days before today, as midnight UTC.
func (d *DaysAgo) DaysAgo(n int) time.Time {
	y, m, day := d.now().In(d.loc).Date()
	return time.Date(y, m, day-n, 0, 0, 0, 0, time.UTC)
}

var defaultWeekend = []time.Weekday{time.Saturday, time.Sunday}

// weekendByRegion lists regions whose weekend differs from Saturday/Sunday.
var weekendByRegion = map[string][]time.Weekday{
	"AE": {time.Friday, time.Saturday},
	"AF": {time.Thursday, time.Friday},
	"BH": {time.Friday, time.Saturday},
	"DZ": {time.Friday, time.Saturday},
	"EG": {time.Friday, time.Saturday},
	"IL": {time.Friday, time.Saturday},
	"IQ": {time.Friday, time.Saturday},
	"IR": {time.Friday},
	"JO": {time.Friday, time.Saturday},
	"KW": {time.Friday, time.Saturday},
	"LY": {time.Friday, time.Saturday},
	"OM": {time.Friday, time.Saturday},
	"QA": {time.Friday, time.Saturday},
	"SA": {time.Friday, time.Saturday},
	"SD": {time.Friday, time.Saturday},
	"SY": {time.Friday, time.Saturday},
	"YE": {time.Friday, time.Saturday},
}

// DayOfWeek classifies days as weekdays or weekend days.
type DayOfWeek struct {
	weekend map[time.Weekday]struct{}
}

// NewDayOfWeek builds a weekday strategy. An explicit weekend list wins over
// the locale; otherwise the weekend is derived from the locale's region.
func NewDayOfWeek(locale string, weekend []time.Weekday) (*DayOfWeek, error) {
	days := weekend
	if len(days) == 0 {
		var err error
		days, err = weekendForLocale(locale)
		if err != nil {
			return nil, err
		}
	}
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return &DayOfWeek{weekend: set}, nil
}

// IsWeekday reports whether the calendar day of t is a working day.
func (d *DayOfWeek) IsWeekday(t time.Time) bool {
	_, weekend := d.weekend[t.Weekday()]
	return !weekend
}

func weekendForLocale(locale string) ([]time.Weekday, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return defaultWeekend, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("calendar: parse locale %q: %w", locale, err)
	}
	region, conf := tag.Region()
	if conf == language.No {
		return defaultWeekend, nil
	}
	if days, ok := weekendByRegion[region.String()]; ok {
		return days, nil
	}
	return defaultWeekend, nil
}

// ParseWeekdays parses a comma separated list of English day names, either
// abbreviated or full ("fri,saturday").
func ParseWeekdays(v string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(v, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("calendar: unknown weekday %q", part)
		}
		out = append(out, day)
	}
	return out, nil
}

var weekdayNames = map[string]time.Weekday{}

func init() {
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		weekdayNames[full] = d
		weekdayNames[full[:3]] = d
	}
}
