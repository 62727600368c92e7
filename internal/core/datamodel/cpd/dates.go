package cpd

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// ParseDate reads the date formats the spreadsheet backend emits. Values with
// an explicit offset are converted into loc; bare dates are read in loc. The
// second result is false when nothing matched.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	// Apps Script appends a zone name in parentheses to Date.toString().
	if i := strings.Index(raw, " ("); i > 0 {
		raw = raw[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// StartOfDay strips the time of day in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
