package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

const (
	StatusApproved = "Approved"
	StatusPending  = "Pending"
)

// Event is an upcoming CPD event as the catalog shows it.
type Event struct {
	ID                   string    `json:"eventId"`
	Name                 string    `json:"eventName"`
	Date                 time.Time `json:"eventDate"`
	RawDate              string    `json:"-"`
	Duration             string    `json:"duration"`
	Venue                string    `json:"venue"`
	Facilitator          string    `json:"facilitator"`
	Department           string    `json:"department"`
	Unit                 string    `json:"unit"`
	Description          string    `json:"description"`
	ApprovalStatus       string    `json:"approvalStatus"`
	MaxCapacity          int       `json:"maxCapacity"`
	CurrentRegistrations int       `json:"currentRegistrations"`
}

// FromRecord converts a backend row. Dates are read in loc; an unreadable
// date leaves Date zero.
func FromRecord(rec cpd.Event, loc *time.Location) Event {
	date, _ := cpd.ParseDate(rec.EventDate.String(), loc)
	return Event{
		ID:                   strings.TrimSpace(rec.EventID.String()),
		Name:                 rec.EventName,
		Date:                 date,
		RawDate:              rec.EventDate.String(),
		Duration:             rec.Duration.String(),
		Venue:                rec.Venue,
		Facilitator:          rec.Facilitator,
		Department:           rec.Department,
		Unit:                 rec.Unit,
		Description:          rec.Description,
		ApprovalStatus:       rec.ApprovalStatus,
		MaxCapacity:          rec.MaxCapacity.Int(),
		CurrentRegistrations: rec.CurrentRegistrations.Int(),
	}
}

func FromRecords(recs []cpd.Event, loc *time.Location) []Event {
	out := make([]Event, len(recs))
	for i, rec := range recs {
		out[i] = FromRecord(rec, loc)
	}
	return out
}

// Availability is capacity minus registrations. It goes negative when the
// backend overbooks.
func (e Event) Availability() int {
	return e.MaxCapacity - e.CurrentRegistrations
}

// AvailabilityLevel is the badge colour of the seats counter.
func (e Event) AvailabilityLevel() string {
	switch a := e.Availability(); {
	case a > 10:
		return "success"
	case a > 0:
		return "warning"
	default:
		return "danger"
	}
}

func (e Event) StatusLevel() string {
	if e.ApprovalStatus == StatusApproved {
		return "success"
	}
	return "warning"
}

func (e Event) StatusLabel() string {
	if e.ApprovalStatus == "" {
		return StatusPending
	}
	return e.ApprovalStatus
}

// SeatsLabel is the free-seat count, or "Full" once none remain.
func (e Event) SeatsLabel() string {
	if a := e.Availability(); a > 0 {
		return fmt.Sprint(a)
	}
	return "Full"
}

// CapacityLabel reads "Unlimited" for events without a cap.
func (e Event) CapacityLabel() string {
	if e.MaxCapacity == 0 {
		return "Unlimited"
	}
	return fmt.Sprint(e.MaxCapacity)
}

// OptionLabel is the text of the event in the registration dropdown.
func (e Event) OptionLabel() string {
	if e.Date.IsZero() {
		return e.Name + " - TBA"
	}
	return e.Name + " - " + e.Date.Format("January 2, 2006")
}
