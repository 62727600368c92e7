package event

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

// FilterFromQuery reads the catalog filter controls. The second result is
// false when the request carries no filter controls at all, which marks a
// fresh activation of the view.
func FilterFromQuery(q url.Values) (Filter, bool) {
	f := Filter{
		Search:     strings.TrimSpace(q.Get("search")),
		Department: q.Get("department"),
		Status:     q.Get("status"),
	}
	filtering := q.Has("search") || q.Has("department") || q.Has("status")
	return f, filtering
}

// DraftFromForm reads the create-event form. A non-numeric capacity reads as
// zero and fails validation.
func DraftFromForm(form url.Values) cpd.EventDraft {
	capacity, _ := strconv.Atoi(strings.TrimSpace(form.Get("maxCapacity")))
	return cpd.EventDraft{
		EventName:   strings.TrimSpace(form.Get("eventName")),
		EventDate:   strings.TrimSpace(form.Get("eventDate")),
		Duration:    strings.TrimSpace(form.Get("duration")),
		Venue:       strings.TrimSpace(form.Get("venue")),
		Facilitator: strings.TrimSpace(form.Get("facilitator")),
		Department:  strings.TrimSpace(form.Get("department")),
		Unit:        strings.TrimSpace(form.Get("unit")),
		Description: strings.TrimSpace(form.Get("description")),
		MaxCapacity: capacity,
	}
}

// ListPage is the data of the events page.
type ListPage struct {
	View        View
	Statuses    []string
	Filtering   bool
	CanRegister bool
}

type DetailPage struct {
	Event       Event
	CanRegister bool
}

type CalendarPage struct {
	InitialView string
	Entries     []CalendarEntry
}

type CreatePage struct {
	Draft   cpd.EventDraft
	Errors  map[string]string
	Error   string
	Created string
}
