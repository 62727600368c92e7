package registration

import (
	"fmt"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

const (
	MsgSelectEvent       = "Please select an event"
	MsgEnterStaffID      = "Please enter Staff ID"
	MsgStaffLookupFailed = "Error validating staff information"
	MsgSucceeded         = "Registration successful!"
	MsgFailed            = "Registration failed"
	MsgFailedRetry       = "Registration failed. Please try again."
	MsgInProgress        = "A registration is already being submitted"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDenied    = "denied"
)

// DepartmentDeniedMessage names both departments of a blocked registration.
func DepartmentDeniedMessage(own, target string) string {
	return fmt.Sprintf("Access Denied: You can only register staff from your department (%s). This staff member is from %s.", own, target)
}

type Transition struct {
	From State
	To   State
	At   time.Time
}

// Form is what the registration form currently holds.
type Form struct {
	EventID string
	StaffID string
}

// Outcome is the message shown under the form after a submission.
type Outcome struct {
	State     State
	Level     string
	Message   string
	Field     string
	ErrorType internal.ErrorType
}

func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Preview is the staff panel shown when the staff ID field loses focus.
type Preview struct {
	Visible bool
	Denied  bool
	Staff   *cpd.Staff
	Message string
}

// Snapshot is a consistent copy of the flow for rendering.
type Snapshot struct {
	State         State
	Busy          bool
	SubmitEnabled bool
	Form          Form
	Preview       Preview
	Last          *Outcome
	History       []Transition
}
