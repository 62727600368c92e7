package registration_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	registrationDatamodel "github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubRemote struct {
	mu          sync.Mutex
	staff       map[string]*cpd.Staff
	lookupErr   error
	registerErr error
	registerMsg string
	lookups     int
	writes      []string
	duringWrite func()
	rosterErr   error
	rosterCalls int
}

func (s *stubRemote) StaffDetails(_ context.Context, staffID string) (*cpd.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.staff[staffID], nil
}

func (s *stubRemote) StaffByDepartment(_ context.Context, department string) ([]cpd.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosterCalls++
	if s.rosterErr != nil {
		return nil, s.rosterErr
	}
	var out []cpd.Staff
	for _, st := range s.staff {
		if st.Department == department {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (s *stubRemote) RegisterStaff(_ context.Context, eventID, staffID string) (string, error) {
	if s.duringWrite != nil {
		s.duringWrite()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, eventID+"/"+staffID)
	return s.registerMsg, s.registerErr
}

type memoryLedger struct {
	attempts []*registrationDatamodel.Attempt
}

func (m *memoryLedger) Record(_ context.Context, a *registrationDatamodel.Attempt) error {
	m.attempts = append(m.attempts, a)
	return nil
}

func visibilityFor(role session.Role, department string) *auth.Visibility {
	user := &session.User{StaffID: "L100", Name: "Leader", Role: role, Department: department}
	return auth.Project(user, auth.Derive(user))
}

var _ = Describe("Flow", func() {
	var (
		ctx       context.Context
		slogger   *slog.Logger
		remote    *stubRemote
		ledger    *memoryLedger
		bus       *events.EventBus
		published []events.Event
		flow      *registration.Flow
	)

	BeforeEach(func() {
		ctx = context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		remote = &stubRemote{staff: map[string]*cpd.Staff{
			"N200": {StaffID: "N200", Name: "Maryam", Department: "ER", Email: "maryam@example.com"},
			"N300": {StaffID: "N300", Name: "Huda", Department: "ICU", Email: "huda@example.com"},
		}}
		ledger = &memoryLedger{}
		bus = events.NewEventBus(slogger)
		published = nil
		bus.Subscribe(events.EventTypeRegistrationSucceeded, func(_ context.Context, ev events.Event) error {
			published = append(published, ev)
			return nil
		})
		flow = registration.NewFlow(registration.FlowConfig{
			ProfileID: "profile-1",
			Remote:    remote,
			Ledger:    ledger,
			Bus:       bus,
			EventName: func(id string) string { return "Event " + id },
			Bounds:    registration.Bounds{MinLength: 2, MaxLength: 10},
			Logger:    slogger,
		})
	})

	states := func() []registration.State {
		var out []registration.State
		for _, t := range flow.Snapshot().History {
			out = append(out, t.To)
		}
		return out
	}

	Describe("input validation", func() {
		It("asks for an event before anything else", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{StaffID: "N200"})
			Expect(out.Message).To(Equal(registration.MsgSelectEvent))
			Expect(out.ErrorType).To(Equal(internal.ErrorTypeValidation))
			Expect(states()).To(Equal([]registration.State{registration.StateValidating, registration.StateIdle}))
			Expect(remote.lookups).To(BeZero())
			Expect(remote.writes).To(BeEmpty())
		})

		It("asks for a staff ID", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "   "})
			Expect(out.Message).To(Equal(registration.MsgEnterStaffID))
			Expect(flow.State()).To(Equal(registration.StateIdle))
			Expect(remote.writes).To(BeEmpty())
			Expect(ledger.attempts).To(BeEmpty())
		})

		It("enforces the staff ID length bounds", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N12345678901"})
			Expect(out.Message).To(ContainSubstring("must not exceed 10"))
			Expect(remote.writes).To(BeEmpty())
		})
	})

	Describe("department restriction", func() {
		It("blocks an ICU leader registering ER staff without calling the write", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleLeader, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})

			Expect(out.State).To(Equal(registration.StateFailed))
			Expect(out.ErrorType).To(Equal(internal.ErrorTypeForbidden))
			Expect(out.Message).To(Equal("Access Denied: You can only register staff from your department (ICU). This staff member is from ER."))
			Expect(remote.writes).To(BeEmpty())
			Expect(states()).To(Equal([]registration.State{
				registration.StateValidating, registration.StateFailed, registration.StateIdle,
			}))
			Expect(ledger.attempts).To(HaveLen(1))
			Expect(ledger.attempts[0].Outcome).To(Equal(registration.OutcomeDenied))
			Expect(published).To(BeEmpty())
		})

		It("lets a leader register staff of their own department", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleLeader, "ICU"), registration.Form{EventID: "E1", StaffID: "N300"})
			Expect(out.Succeeded()).To(BeTrue())
			Expect(remote.writes).To(Equal([]string{"E1/N300"}))
		})

		It("fails with a generic message when the lookup cannot complete", func() {
			remote.lookupErr = internal.NewExternalError("down", internal.ErrCodeRemoteUnavailable, errors.New("timeout"))
			out := flow.Submit(ctx, visibilityFor(session.RoleLeader, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.State).To(Equal(registration.StateFailed))
			Expect(out.Message).To(Equal(registration.MsgStaffLookupFailed))
			Expect(remote.writes).To(BeEmpty())
		})

		It("submits when the backend rejects the lookup", func() {
			remote.lookupErr = internal.NewBusinessError("Staff not found")
			out := flow.Submit(ctx, visibilityFor(session.RoleLeader, "ICU"), registration.Form{EventID: "E1", StaffID: "N999"})
			Expect(out.Succeeded()).To(BeTrue())
			Expect(remote.writes).To(HaveLen(1))
		})

		It("does not look staff up for unrestricted roles", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleAdmin, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.Succeeded()).To(BeTrue())
			Expect(remote.lookups).To(BeZero())
		})
	})

	Describe("submission", func() {
		It("walks every state, resets the form and announces the write", func() {
			remote.registerMsg = "Registered Maryam for BLS"
			flow.Preview(ctx, visibilityFor(session.RoleModerator, "ICU"), "N200")

			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.Message).To(Equal("Registered Maryam for BLS"))
			Expect(states()).To(Equal([]registration.State{
				registration.StateValidating, registration.StateSubmitting, registration.StateSucceeded, registration.StateIdle,
			}))

			snap := flow.Snapshot()
			Expect(snap.Form).To(Equal(registration.Form{}))
			Expect(snap.Preview.Visible).To(BeFalse())
			Expect(snap.SubmitEnabled).To(BeTrue())

			Expect(published).To(HaveLen(1))
			ev := published[0].(*events.RegistrationSucceededEvent)
			Expect(ev.EventName).To(Equal("Event E1"))
			Expect(ev.StaffName).To(Equal("Maryam"))
			Expect(ev.StaffEmail).To(Equal("maryam@example.com"))
		})

		It("falls back to the default success message", func() {
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.Message).To(Equal(registration.MsgSucceeded))
		})

		It("reports busy while the write is in flight", func() {
			var busy, enabled bool
			remote.duringWrite = func() {
				busy = flow.Busy()
				enabled = flow.SubmitEnabled()
			}
			flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(busy).To(BeTrue())
			Expect(enabled).To(BeFalse())
			Expect(flow.Busy()).To(BeFalse())
		})

		It("shows the backend's reason on a rejected write and keeps the form", func() {
			remote.registerErr = internal.NewBusinessError("Event is full")
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.State).To(Equal(registration.StateFailed))
			Expect(out.Message).To(Equal("Event is full"))
			Expect(flow.Snapshot().Form.StaffID).To(Equal("N200"))
			Expect(flow.SubmitEnabled()).To(BeTrue())
			Expect(published).To(BeEmpty())
		})

		It("uses the generic failure text when the backend gives no reason", func() {
			remote.registerErr = internal.NewBusinessError(remoteapi.DefaultFailureMessage)
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.Message).To(Equal(registration.MsgFailed))
		})

		It("asks for a retry after a transport failure", func() {
			remote.registerErr = internal.NewExternalError("HTTP error! status: 500", internal.ErrCodeHTTPStatus, nil)
			out := flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(out.Message).To(Equal(registration.MsgFailedRetry))
			Expect(flow.State()).To(Equal(registration.StateIdle))
			Expect(ledger.attempts).To(HaveLen(1))
			Expect(ledger.attempts[0].ErrorType).To(Equal(string(internal.ErrorTypeExternal)))
		})

		It("refuses a second submission while one is running", func() {
			var nested registration.Outcome
			remote.duringWrite = func() {
				remote.duringWrite = nil
				nested = flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E2", StaffID: "N300"})
			}
			flow.Submit(ctx, visibilityFor(session.RoleModerator, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(nested.Message).To(Equal(registration.MsgInProgress))
			Expect(remote.writes).To(Equal([]string{"E1/N200"}))
		})
	})

	Describe("live preview", func() {
		It("disables submission for a restricted user previewing another department", func() {
			p := flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N200")
			Expect(p.Visible).To(BeTrue())
			Expect(p.Denied).To(BeTrue())
			Expect(p.Message).To(ContainSubstring("(ICU)"))
			Expect(p.Message).To(ContainSubstring("ER"))
			Expect(flow.SubmitEnabled()).To(BeFalse())

			p = flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N300")
			Expect(p.Denied).To(BeFalse())
			Expect(p.Staff.Name).To(Equal("Huda"))
			Expect(flow.SubmitEnabled()).To(BeTrue())
		})

		It("hides the panel and enables submission for unknown staff", func() {
			flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N200")
			p := flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N404")
			Expect(p.Visible).To(BeFalse())
			Expect(flow.SubmitEnabled()).To(BeTrue())
		})

		It("hides the panel without touching the control on a transport error", func() {
			flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N200")
			remote.lookupErr = internal.NewExternalError("down", internal.ErrCodeRemoteUnavailable, nil)

			p := flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N300")
			Expect(p.Visible).To(BeFalse())
			Expect(flow.SubmitEnabled()).To(BeFalse())
		})

		It("re-enables submission after any terminal outcome", func() {
			flow.Preview(ctx, visibilityFor(session.RoleLeader, "ICU"), "N200")
			flow.Submit(ctx, visibilityFor(session.RoleLeader, "ICU"), registration.Form{EventID: "E1", StaffID: "N200"})
			Expect(flow.SubmitEnabled()).To(BeTrue())
		})
	})
	Describe("department staff picker", func() {
		It("lists only the restricted user's department and fetches it once", func() {
			v := visibilityFor(session.RoleLeader, "ICU")
			staff := flow.DepartmentStaff(ctx, v)
			Expect(staff).To(HaveLen(1))
			Expect(staff[0].Name).To(Equal("Huda"))

			flow.DepartmentStaff(ctx, v)
			Expect(remote.rosterCalls).To(Equal(1))
		})

		It("offers no picker to users who may register anyone", func() {
			Expect(flow.DepartmentStaff(ctx, visibilityFor(session.RoleModerator, "ICU"))).To(BeNil())
			Expect(remote.rosterCalls).To(BeZero())
		})

		It("retries a department whose fetch failed", func() {
			v := visibilityFor(session.RoleLeader, "ER")
			remote.rosterErr = internal.NewExternalError("down", internal.ErrCodeRemoteUnavailable, nil)
			Expect(flow.DepartmentStaff(ctx, v)).To(BeEmpty())

			remote.rosterErr = nil
			Expect(flow.DepartmentStaff(ctx, v)).To(HaveLen(1))
			Expect(remote.rosterCalls).To(Equal(2))
		})
	})
})
