package event

import (
	"context"
	"sync"
)

const (
	ColorApproved = "#28a745"
	ColorPending  = "#ffc107"
)

// CalendarEntry is the shape the calendar widget consumes.
type CalendarEntry struct {
	Title         string             `json:"title"`
	Start         string             `json:"start"`
	Color         string             `json:"color"`
	ExtendedProps CalendarEntryProps `json:"extendedProps"`
}

type CalendarEntryProps struct {
	EventID     string `json:"eventId"`
	Venue       string `json:"venue"`
	Facilitator string `json:"facilitator"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

func NewCalendarEntry(e Event) CalendarEntry {
	color := ColorPending
	if e.ApprovalStatus == StatusApproved {
		color = ColorApproved
	}
	start := e.RawDate
	if !e.Date.IsZero() {
		start = e.Date.Format("2006-01-02")
		if h, m, s := e.Date.Clock(); h != 0 || m != 0 || s != 0 {
			start = e.Date.Format("2006-01-02T15:04:05")
		}
	}
	return CalendarEntry{
		Title: e.Name,
		Start: start,
		Color: color,
		ExtendedProps: CalendarEntryProps{
			EventID:     e.ID,
			Venue:       e.Venue,
			Facilitator: e.Facilitator,
			Duration:    e.Duration,
			Description: e.Description,
		},
	}
}

// Calendar is built once from the catalog the first time it is opened and
// reused afterwards until Reset.
type Calendar struct {
	catalog     *Catalog
	initialView string

	mu          sync.Mutex
	entries     []CalendarEntry
	initialized bool
}

func NewCalendar(catalog *Catalog, initialView string) *Calendar {
	return &Calendar{catalog: catalog, initialView: initialView}
}

func (c *Calendar) InitialView() string {
	return c.initialView
}

func (c *Calendar) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Init returns the entries, building them on first use. A catalog that
// failed to load leaves the calendar uninitialized and the next Init fetches
// the catalog again.
func (c *Calendar) Init(ctx context.Context) ([]CalendarEntry, error) {
	c.mu.Lock()
	if c.initialized {
		out := c.entries
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	if err := c.catalog.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	if failure := c.catalog.Failure(); failure != "" {
		return []CalendarEntry{}, nil
	}

	evs := c.catalog.Events()
	entries := make([]CalendarEntry, len(evs))
	for i, e := range evs {
		entries[i] = NewCalendarEntry(e)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		c.entries = entries
		c.initialized = true
	}
	return c.entries, nil
}

// Reset drops the built entries so the next Init reads the catalog again.
func (c *Calendar) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.initialized = false
}
