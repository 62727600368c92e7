package event

import (
	"sort"
	"strings"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

// Filter narrows the cached event set. Empty fields match everything; set
// fields are combined with AND.
type Filter struct {
	Search     string
	Department string
	Status     string
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Department == "" && f.Status == ""
}

// Matches applies a case-insensitive substring search over name, description
// and facilitator, and exact department and status matches.
func (f Filter) Matches(e Event) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(e.Name), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) &&
			!strings.Contains(strings.ToLower(e.Facilitator), term) {
			return false
		}
	}
	if f.Department != "" && e.Department != f.Department {
		return false
	}
	if f.Status != "" && e.ApprovalStatus != f.Status {
		return false
	}
	return true
}

// Apply returns the matching events in their original order. The input is
// never modified.
func (f Filter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Upcoming keeps events dated on or after today's calendar day. Time of day
// is ignored on both sides; undated events are dropped.
func Upcoming(events []Event, today time.Time) []Event {
	start := cpd.StartOfDay(today)
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Date.IsZero() {
			continue
		}
		if !cpd.StartOfDay(e.Date.In(start.Location())).Before(start) {
			out = append(out, e)
		}
	}
	return out
}

// Departments lists the distinct non-empty departments, sorted.
func Departments(events []Event) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		if e.Department == "" {
			continue
		}
		if _, ok := seen[e.Department]; ok {
			continue
		}
		seen[e.Department] = struct{}{}
		out = append(out, e.Department)
	}
	sort.Strings(out)
	return out
}
