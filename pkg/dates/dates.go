// Package dates holds the pure date logic shared by both sync directions:
// bucketing a timestamp against a reference day, end-of-day inference for
// section headers, and the display format used inside #date(...) tags.
package dates

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Bucket is a date-relative display category.
type Bucket int

const (
	None Bucket = iota
	Today
	Yesterday
	Tomorrow
)

// String returns a human-readable representation of the bucket.
func (b Bucket) String() string {
	switch b {
	case Today:
		return "today"
	case Yesterday:
		return "yesterday"
	case Tomorrow:
		return "tomorrow"
	default:
		return "none"
	}
}

// Midnight truncates t to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of the calendar day containing t.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999*int(time.Millisecond), t.Location())
}

// Classify buckets a timestamp relative to the given reference day.
// The reference day must be midnight-aligned; callers compute it once per
// pass so every task is bucketed against the same window. A nil timestamp
// buckets to None; so does anything outside the three named days.
func Classify(t *time.Time, today time.Time) Bucket {
	if t == nil || t.IsZero() {
		return None
	}
	day := Midnight(t.In(today.Location()))
	switch {
	case day.Equal(today):
		return Today
	case day.Equal(today.AddDate(0, 0, -1)):
		return Yesterday
	case day.Equal(today.AddDate(0, 0, 1)):
		return Tomorrow
	default:
		return None
	}
}

// FormatDisplay renders an instant the way the document shows it: dates with
// a time-of-day of exactly midnight render as YYYY-MM-DD, everything else as
// YYYY-MM-DD HH:MM. This is what distinguishes all-day from timed tasks in
// the rendered text.
func FormatDisplay(t time.Time) string {
	local := t.Local()
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0 {
		return local.Format("2006-01-02")
	}
	return local.Format("2006-01-02 15:04")
}

// parseLayouts are the explicit forms tried before falling back to the
// natural-language parser. Local time unless the string carries a zone.
var parseLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

var flexParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseFlexible parses a date string from a #date(...) tag or a CLI flag.
// It accepts the explicit layouts above plus natural-language forms
// ("tomorrow at 5pm"), resolved against base. Failure reports ok=false
// rather than an error; an unparseable date is treated as absent.
func ParseFlexible(s string, base time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}

	r, err := flexParser.Parse(s, base)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time, true
}
