package portal

import (
	"context"
	"log/slog"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/dashboard"
	"github.com/nizwa-nursing/cpd-portal/internal/directory"
	"github.com/nizwa-nursing/cpd-portal/internal/event"
	"github.com/nizwa-nursing/cpd-portal/internal/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

// Remote is everything the views read from or write to the CPD backend.
type Remote interface {
	event.Source
	registration.Remote
	dashboard.Source
	directory.Source
}

type Deps struct {
	KV            session.KeyValue
	Remote        Remote
	Ledger        registration.Ledger
	Notifier      events.Handler
	Location      *time.Location
	Bounds        registration.Bounds
	CalendarView  string
	APIConfigured func() bool
	Logger        *slog.Logger
}

// Workspace holds every view of one browser profile. Views are created once
// and live until the profile is evicted or signs out.
type Workspace struct {
	ProfileID     string
	Session       *session.Store
	Gate          *auth.Gate
	Bus           *events.EventBus
	Outbox        *events.EventBus
	Catalog       *event.Catalog
	Calendar      *event.Calendar
	Registration  *registration.Flow
	Dashboard     *dashboard.View
	Leaders       *directory.Leaders
	Announcements *directory.Announcements
	CreatedAt     time.Time
}

func NewWorkspace(profileID string, deps Deps) *Workspace {
	log := deps.Logger.With("profile_id", profileID)

	store := session.NewStore(deps.KV, profileID, log)
	bus := events.NewEventBus(log)
	outbox := events.NewEventBus(log)
	catalog := event.NewCatalog(deps.Remote, deps.Location, log)

	w := &Workspace{
		ProfileID: profileID,
		Session:   store,
		Gate:      auth.NewGate(store, log),
		Bus:       bus,
		Outbox:    outbox,
		Catalog:   catalog,
		Calendar:  event.NewCalendar(catalog, deps.CalendarView),
		Registration: registration.NewFlow(registration.FlowConfig{
			ProfileID: profileID,
			Remote:    deps.Remote,
			Ledger:    deps.Ledger,
			Bus:       bus,
			Outbox:    outbox,
			EventName: func(id string) string {
				if e, ok := catalog.Find(id); ok {
					return e.Name
				}
				return ""
			},
			Bounds: deps.Bounds,
			Logger: log,
		}),
		Dashboard:     dashboard.NewView(deps.Remote, deps.APIConfigured, log),
		Leaders:       directory.NewLeaders(deps.Remote, log),
		Announcements: directory.NewAnnouncements(deps.Remote, deps.Location, log),
		CreatedAt:     time.Now(),
	}
	w.subscribe(deps.Notifier)
	return w
}

// subscribe wires acknowledged writes to the views that must re-read. The
// catalog refresh runs before the calendar is reset so the next calendar
// build sees the new data. Mail goes through the outbox and never delays the
// response.
func (w *Workspace) subscribe(notifier events.Handler) {
	resetCalendar := func(context.Context, events.Event) error {
		w.Calendar.Reset()
		return nil
	}

	w.Bus.Subscribe(events.EventTypeRegistrationSucceeded, w.Catalog.OnAcknowledgedMutation)
	w.Bus.Subscribe(events.EventTypeRegistrationSucceeded, resetCalendar)
	if notifier != nil {
		w.Outbox.Subscribe(events.EventTypeRegistrationSucceeded, notifier)
	}

	w.Bus.Subscribe(events.EventTypeEventCreated, w.Catalog.OnAcknowledgedMutation)
	w.Bus.Subscribe(events.EventTypeEventCreated, resetCalendar)

	w.Bus.Subscribe(events.EventTypeAnnouncementCreated, w.Announcements.OnAcknowledgedMutation)
}
