package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
)

// LoadFailedMessage is shown when the events could not be fetched for a
// reason other than a backend rejection.
const LoadFailedMessage = "Error loading events. Please check your API configuration and try again."

type Source interface {
	UpcomingEvents(ctx context.Context) ([]cpd.Event, error)
}

// Catalog caches the upcoming events of one browser profile. The set is
// fetched once per activation; filtering never goes back to the backend.
type Catalog struct {
	source Source
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	events   []Event
	loaded   bool
	failure  string
	loadedAt time.Time
}

func NewCatalog(source Source, loc *time.Location, logger *slog.Logger) *Catalog {
	if loc == nil {
		loc = time.Local
	}
	return &Catalog{
		source: source,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the clock used for the upcoming-date cut-off.
func (c *Catalog) WithClock(now func() time.Time) *Catalog {
	c.now = now
	return c
}

// Load fetches the event set and replaces the cache. On failure the cache is
// emptied and the failure is kept for the view to show.
func (c *Catalog) Load(ctx context.Context) error {
	recs, err := c.source.UpcomingEvents(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.loadedAt = c.now()

	if err != nil {
		c.events = nil
		c.failure = failureMessage(err)
		c.logger.ErrorContext(ctx, "failed to load events", "error", err)
		return err
	}

	all := FromRecords(recs, c.loc)
	c.events = Upcoming(all, c.now().In(c.loc))
	c.failure = ""
	c.logger.DebugContext(ctx, "events loaded",
		"received", len(all),
		"upcoming", len(c.events))
	return nil
}

// EnsureLoaded fetches when nothing has been fetched yet or the last fetch
// failed.
func (c *Catalog) EnsureLoaded(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.loaded && c.failure == ""
	c.mu.RUnlock()
	if fresh {
		return nil
	}
	return c.Load(ctx)
}

// Refresh is an authoritative re-read after an acknowledged write.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// OnAcknowledgedMutation is subscribed to the bus events that change the
// backend's event rows.
func (c *Catalog) OnAcknowledgedMutation(ctx context.Context, ev events.Event) error {
	c.logger.DebugContext(ctx, "refreshing events after mutation",
		"event_type", ev.EventType(),
		"event_id", ev.EventID())
	return c.Refresh(ctx)
}

func (c *Catalog) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Catalog) Find(id string) (Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

func (c *Catalog) Failure() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failure
}

// View is one rendering of the catalog.
type View struct {
	Events      []Event   `json:"events"`
	Departments []string  `json:"departments"`
	Filter      Filter    `json:"-"`
	Total       int       `json:"total"`
	Error       string    `json:"error,omitempty"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// View filters the cached set. A failed load renders no events.
func (c *Catalog) View(f Filter) View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.failure != "" {
		return View{Filter: f, Error: c.failure, LoadedAt: c.loadedAt}
	}
	return View{
		Events:      f.Apply(c.events),
		Departments: Departments(c.events),
		Filter:      f,
		Total:       len(c.events),
		LoadedAt:    c.loadedAt,
	}
}

func failureMessage(err error) string {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeBusiness {
		return appErr.Message
	}
	return LoadFailedMessage
}
