package registration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/common/validation"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	registrationDatamodel "github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
)

type Remote interface {
	StaffDetails(ctx context.Context, staffID string) (*cpd.Staff, error)
	StaffByDepartment(ctx context.Context, department string) ([]cpd.Staff, error)
	RegisterStaff(ctx context.Context, eventID, staffID string) (string, error)
}

type Ledger interface {
	Record(ctx context.Context, attempt *registrationDatamodel.Attempt) error
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Announcer hands an acknowledged registration to side effects that must not
// hold up the response, such as the confirmation email.
type Announcer interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventNamer resolves an event ID to its display name for notifications.
type EventNamer func(eventID string) string

type Bounds struct {
	MinLength int
	MaxLength int
}

// Flow is the registration form of one browser profile. Every submission
// walks idle -> validating -> submitting -> succeeded|failed -> idle; a
// validation failure returns straight to idle.
type Flow struct {
	profileID string
	remote    Remote
	ledger    Ledger
	bus       Publisher
	outbox    Announcer
	eventName EventNamer
	bounds    Bounds
	logger    *slog.Logger
	now       func() time.Time

	mu            sync.Mutex
	state         State
	busy          bool
	submitEnabled bool
	form          Form
	preview       Preview
	last          *Outcome
	history       []Transition
	roster        map[string][]cpd.Staff
}

type FlowConfig struct {
	ProfileID string
	Remote    Remote
	Ledger    Ledger
	Bus       Publisher
	Outbox    Announcer
	EventName EventNamer
	Bounds    Bounds
	Logger    *slog.Logger
}

func NewFlow(cfg FlowConfig) *Flow {
	if cfg.EventName == nil {
		cfg.EventName = func(string) string { return "" }
	}
	return &Flow{
		profileID:     cfg.ProfileID,
		remote:        cfg.Remote,
		ledger:        cfg.Ledger,
		bus:           cfg.Bus,
		outbox:        cfg.Outbox,
		eventName:     cfg.EventName,
		bounds:        cfg.Bounds,
		logger:        cfg.Logger,
		now:           time.Now,
		state:         StateIdle,
		submitEnabled: true,
	}
}

const maxHistory = 50

// transition must be called with mu held.
func (f *Flow) transition(to State) {
	f.history = append(f.history, Transition{From: f.state, To: to, At: f.now()})
	if len(f.history) > maxHistory {
		f.history = f.history[len(f.history)-maxHistory:]
	}
	f.state = to
}

// Select pre-fills the event, as the quick-register buttons do.
func (f *Flow) Select(eventID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.EventID = eventID
}

// Submit runs one registration. The returned outcome is also kept as the
// flow's last message.
func (f *Flow) Submit(ctx context.Context, v *auth.Visibility, form Form) Outcome {
	form.EventID = strings.TrimSpace(form.EventID)
	form.StaffID = strings.TrimSpace(form.StaffID)

	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return Outcome{State: StateIdle, Level: "warning", Message: MsgInProgress}
	}
	f.form = form
	f.transition(StateValidating)
	f.mu.Unlock()

	if out, ok := f.validateInput(form); !ok {
		return f.abort(out)
	}

	if v.Can(auth.DepartmentRestricted) {
		if out, ok := f.checkDepartment(ctx, v, form); !ok {
			return f.finish(ctx, v, form, out)
		}
	}

	f.mu.Lock()
	f.transition(StateSubmitting)
	f.busy = true
	f.mu.Unlock()

	message, err := f.remote.RegisterStaff(ctx, form.EventID, form.StaffID)
	if err != nil {
		return f.finish(ctx, v, form, submitFailure(err))
	}

	if message == "" {
		message = MsgSucceeded
	}
	staffName, staffEmail := f.previewedStaff(form.StaffID)
	out := f.finish(ctx, v, form, Outcome{State: StateSucceeded, Level: "success", Message: message})

	ev := events.NewRegistrationSucceededEvent(f.profileID, form.EventID, f.eventName(form.EventID), form.StaffID, staffName, staffEmail)
	if f.bus != nil {
		if err := f.bus.PublishSync(ctx, ev); err != nil {
			f.logger.WarnContext(ctx, "registration handlers failed", "error", err, "event_id", form.EventID)
		}
	}
	if f.outbox != nil {
		_ = f.outbox.Publish(ctx, ev)
	}
	return out
}

func (f *Flow) validateInput(form Form) (Outcome, bool) {
	if form.EventID == "" {
		return Outcome{State: StateIdle, Level: "danger", Message: MsgSelectEvent, Field: "eventId", ErrorType: internal.ErrorTypeValidation}, false
	}
	if appErr := validation.ValidateStaffID(form.StaffID, f.bounds.MinLength, f.bounds.MaxLength); appErr != nil {
		return Outcome{State: StateIdle, Level: "danger", Message: appErr.UserMessage(), Field: "staffId", ErrorType: internal.ErrorTypeValidation}, false
	}
	return Outcome{}, true
}

// checkDepartment blocks staff from another department. A lookup the backend
// rejects lets the submission through; a lookup that could not complete
// fails it.
func (f *Flow) checkDepartment(ctx context.Context, v *auth.Visibility, form Form) (Outcome, bool) {
	staff, err := f.remote.StaffDetails(ctx, form.StaffID)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeBusiness) {
			f.logger.InfoContext(ctx, "staff lookup rejected, submitting anyway", "staff_id", form.StaffID, "error", err)
			return Outcome{}, true
		}
		f.logger.ErrorContext(ctx, "error verifying staff department", "staff_id", form.StaffID, "error", err)
		return Outcome{State: StateFailed, Level: "danger", Message: MsgStaffLookupFailed, ErrorType: internal.ErrorTypeExternal}, false
	}
	if staff != nil && staff.Department != v.User.Department {
		f.logger.WarnContext(ctx, "registration blocked by department restriction",
			"actor_staff_id", v.User.StaffID,
			"actor_department", v.User.Department,
			"staff_id", form.StaffID,
			"staff_department", staff.Department)
		return Outcome{
			State:     StateFailed,
			Level:     "danger",
			Message:   DepartmentDeniedMessage(v.User.Department, staff.Department),
			ErrorType: internal.ErrorTypeForbidden,
		}, false
	}
	return Outcome{}, true
}

func submitFailure(err error) Outcome {
	appErr, ok := internal.IsAppError(err)
	if ok && appErr.Type == internal.ErrorTypeBusiness {
		message := appErr.Message
		if message == "" || message == remoteapi.DefaultFailureMessage {
			message = MsgFailed
		}
		return Outcome{State: StateFailed, Level: "danger", Message: message, ErrorType: internal.ErrorTypeBusiness}
	}
	return Outcome{State: StateFailed, Level: "danger", Message: MsgFailedRetry, ErrorType: internal.ErrorTypeExternal}
}

// abort returns a validation failure to idle without touching the network.
func (f *Flow) abort(out Outcome) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transition(StateIdle)
	f.last = &out
	return out
}

// finish records a terminal outcome and returns the form to idle with the
// submit control enabled.
func (f *Flow) finish(ctx context.Context, v *auth.Visibility, form Form, out Outcome) Outcome {
	f.mu.Lock()
	f.transition(out.State)
	if out.State == StateSucceeded {
		f.form = Form{}
		f.preview = Preview{}
	}
	f.last = &out
	f.busy = false
	f.submitEnabled = true
	f.transition(StateIdle)
	f.mu.Unlock()

	f.record(ctx, v, form, out)
	return out
}

func (f *Flow) record(ctx context.Context, v *auth.Visibility, form Form, out Outcome) {
	if f.ledger == nil {
		return
	}
	outcome := OutcomeFailed
	switch {
	case out.State == StateSucceeded:
		outcome = OutcomeSucceeded
	case out.ErrorType == internal.ErrorTypeForbidden:
		outcome = OutcomeDenied
	}
	attempt := &registrationDatamodel.Attempt{
		ProfileID: f.profileID,
		ActorID:   v.User.StaffID,
		EventID:   form.EventID,
		StaffID:   form.StaffID,
		Outcome:   outcome,
		ErrorType: string(out.ErrorType),
		Message:   out.Message,
		CreatedAt: f.now().UTC(),
	}
	if err := f.ledger.Record(ctx, attempt); err != nil {
		f.logger.ErrorContext(ctx, "failed to record registration attempt", "error", err)
	}
}

// Preview looks up the staff member typed into the form. For a
// department-restricted user a mismatch disables the submit control until
// another preview or submission re-enables it.
func (f *Flow) Preview(ctx context.Context, v *auth.Visibility, staffID string) Preview {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return f.setPreview(Preview{}, nil)
	}

	staff, err := f.remote.StaffDetails(ctx, staffID)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeBusiness) {
			return f.setPreview(Preview{}, boolPtr(true))
		}
		f.logger.ErrorContext(ctx, "error fetching staff details", "staff_id", staffID, "error", err)
		return f.setPreview(Preview{}, nil)
	}
	if staff == nil {
		return f.setPreview(Preview{}, boolPtr(true))
	}

	if v.Can(auth.DepartmentRestricted) && staff.Department != v.User.Department {
		return f.setPreview(Preview{
			Visible: true,
			Denied:  true,
			Staff:   staff,
			Message: fmt.Sprintf("Access Denied: You can only register staff from your department (%s). This staff member is from: %s", v.User.Department, staff.Department),
		}, boolPtr(false))
	}
	return f.setPreview(Preview{Visible: true, Staff: staff}, boolPtr(true))
}

// setPreview stores the panel; a nil enable leaves the submit control as is.
func (f *Flow) setPreview(p Preview, enable *bool) Preview {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preview = p
	if enable != nil {
		f.submitEnabled = *enable
	}
	return p
}

func (f *Flow) previewedStaff(staffID string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.preview.Staff != nil && f.preview.Staff.StaffID.String() == staffID {
		return f.preview.Staff.Name, f.preview.Staff.Email
	}
	return "", ""
}

// DepartmentStaff lists the staff a department-restricted user may register,
// for the staff ID picker. Other users get nil. A department is fetched once
// per flow; a failed fetch is retried on the next call.
func (f *Flow) DepartmentStaff(ctx context.Context, v *auth.Visibility) []cpd.Staff {
	if v == nil || v.User == nil || !v.Can(auth.DepartmentRestricted) {
		return nil
	}
	department := v.User.Department

	f.mu.Lock()
	staff, ok := f.roster[department]
	f.mu.Unlock()
	if ok {
		return staff
	}

	staff, err := f.remote.StaffByDepartment(ctx, department)
	if err != nil {
		f.logger.ErrorContext(ctx, "error fetching department staff", "department", department, "error", err)
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roster == nil {
		f.roster = make(map[string][]cpd.Staff)
	}
	f.roster[department] = staff
	return staff
}

func boolPtr(b bool) *bool {
	return &b
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy is true while the registration write is in flight.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *Flow) SubmitEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitEnabled && !f.busy
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := Snapshot{
		State:         f.state,
		Busy:          f.busy,
		SubmitEnabled: f.submitEnabled && !f.busy,
		Form:          f.form,
		Preview:       f.preview,
		History:       append([]Transition(nil), f.history...),
	}
	if f.last != nil {
		last := *f.last
		s.Last = &last
	}
	return s
}

// ClearMessage drops the last outcome once it has been shown.
func (f *Flow) ClearMessage() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = nil
}
