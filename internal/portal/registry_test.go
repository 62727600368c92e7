package portal_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/notification"
	"github.com/nizwa-nursing/cpd-portal/internal/portal"
	"github.com/nizwa-nursing/cpd-portal/internal/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ = Describe("Registry", func() {
	var (
		ctx          context.Context
		slogger      *slog.Logger
		eventFetches atomic.Int32
		notified     []events.Event
		notifyErr    error
		notifyMu     sync.Mutex
		logs         *lockedBuffer
		registry     *portal.Registry
	)

	BeforeEach(func() {
		ctx = context.Background()
		logs = &lockedBuffer{}
		slogger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
		eventFetches.Store(0)
		notifyMu.Lock()
		notified = nil
		notifyErr = nil
		notifyMu.Unlock()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.Method == http.MethodPost {
				_ = r.ParseForm()
			}
			action := r.FormValue("action")
			switch action {
			case string(remoteapi.ActionGetUpcomingEvents):
				eventFetches.Add(1)
				_, _ = w.Write([]byte(`{"success":true,"events":[{"eventId":"E1","eventName":"BLS","eventDate":"2099-01-10","maxCapacity":20,"currentRegistrations":3}]}`))
			case string(remoteapi.ActionRegisterStaff):
				_, _ = w.Write([]byte(`{"success":true,"message":"Registered"}`))
			case string(remoteapi.ActionGetAnnouncements):
				_, _ = w.Write([]byte(`{"success":true,"announcements":[]}`))
			default:
				_, _ = w.Write([]byte(`{"success":false,"message":"unknown action"}`))
			}
		}))
		DeferCleanup(server.Close)

		registry = portal.NewRegistry(portal.Deps{
			KV:     session.NewMemoryKV(),
			Remote: remoteapi.NewClient(remoteapi.Config{BaseURL: server.URL}, slogger),
			Notifier: func(_ context.Context, ev events.Event) error {
				notifyMu.Lock()
				defer notifyMu.Unlock()
				notified = append(notified, ev)
				return notifyErr
			},
			Location:     time.UTC,
			Bounds:       registration.Bounds{MinLength: 2, MaxLength: 10},
			CalendarView: "dayGridMonth",
			Logger:       slogger,
		}, 8, time.Hour)
	})

	profileCtx := func(id string) context.Context {
		return internal.ContextWithProfileID(ctx, id)
	}

	It("keeps one workspace per profile", func() {
		a := registry.For(profileCtx("a"))
		Expect(registry.For(profileCtx("a"))).To(BeIdenticalTo(a))
		Expect(registry.For(profileCtx("b"))).NotTo(BeIdenticalTo(a))
		Expect(registry.Len()).To(Equal(2))
	})

	It("never caches a request without a profile", func() {
		first := registry.For(ctx)
		Expect(registry.For(ctx)).NotTo(BeIdenticalTo(first))
		Expect(registry.Len()).To(BeZero())
	})

	It("starts a profile afresh after sign-out but keeps other profiles", func() {
		a := registry.For(profileCtx("a"))
		b := registry.For(profileCtx("b"))
		registry.ForgetFor(profileCtx("a"))

		Expect(registry.For(profileCtx("a"))).NotTo(BeIdenticalTo(a))
		Expect(registry.For(profileCtx("b"))).To(BeIdenticalTo(b))
	})

	It("evicts the least recently used profile when full", func() {
		small := portal.NewRegistry(portal.Deps{KV: session.NewMemoryKV(), Logger: slogger}, 1, time.Hour)
		a := small.Get("a")
		small.Get("b")
		Expect(small.Len()).To(Equal(1))
		Expect(small.Get("a")).NotTo(BeIdenticalTo(a))
	})

	It("refreshes the catalog and resets the calendar after an acknowledged registration", func() {
		pctx := profileCtx("a")
		w := registry.For(pctx)
		Expect(w.Session.Save(pctx, &session.User{StaffID: "M1", Name: "Mod", Role: session.RoleModerator})).To(Succeed())

		Expect(w.Catalog.Load(pctx)).To(Succeed())
		_, err := w.Calendar.Init(pctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Calendar.Initialized()).To(BeTrue())
		Expect(eventFetches.Load()).To(Equal(int32(1)))

		decision := w.Gate.Initialize(pctx)
		Expect(decision.Redirect).To(BeEmpty())
		out := w.Registration.Submit(pctx, decision.Visibility, registration.Form{EventID: "E1", StaffID: "N200"})
		Expect(out.Succeeded()).To(BeTrue())

		Expect(eventFetches.Load()).To(Equal(int32(2)))
		Expect(w.Calendar.Initialized()).To(BeFalse())

		notifications := func() []events.Event {
			notifyMu.Lock()
			defer notifyMu.Unlock()
			return append([]events.Event(nil), notified...)
		}
		Eventually(notifications).Should(HaveLen(1))
		Expect(notifications()[0].(*events.RegistrationSucceededEvent).EventName).To(Equal("BLS"))
	})

	It("keeps a failing confirmation mail out of the registration result", func() {
		notifyMu.Lock()
		notifyErr = notification.ErrQueueFull
		notifyMu.Unlock()

		pctx := profileCtx("a")
		w := registry.For(pctx)
		Expect(w.Session.Save(pctx, &session.User{StaffID: "M1", Name: "Mod", Role: session.RoleModerator})).To(Succeed())
		Expect(w.Catalog.Load(pctx)).To(Succeed())

		decision := w.Gate.Initialize(pctx)
		out := w.Registration.Submit(pctx, decision.Visibility, registration.Form{EventID: "E1", StaffID: "N200"})
		Expect(out.Succeeded()).To(BeTrue())
		Expect(eventFetches.Load()).To(Equal(int32(2)))

		Eventually(logs.String).Should(ContainSubstring("notification queue full"))
		Expect(logs.String()).NotTo(ContainSubstring("registration handlers failed"))
	})

	It("does not leak refreshes between profiles", func() {
		a := registry.For(profileCtx("a"))
		b := registry.For(profileCtx("b"))
		Expect(a.Catalog.Load(ctx)).To(Succeed())
		Expect(b.Catalog.Load(ctx)).To(Succeed())

		Expect(a.Bus.PublishSync(ctx, events.NewEventCreatedEvent("E2", "ACLS", "A1"))).To(Succeed())
		Expect(eventFetches.Load()).To(Equal(int32(3)))
	})

	It("resolves the gate of the request's profile", func() {
		pctx := profileCtx("a")
		var resolve auth.GateResolver = registry.Gate
		Expect(resolve(pctx).Initialize(pctx).Redirect).To(Equal(auth.LoginPath))
	})
})
