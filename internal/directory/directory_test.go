package directory_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/directory"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeCreator struct {
	drafts []cpd.AnnouncementDraft
	err    error
}

func (f *fakeCreator) CreateAnnouncement(_ context.Context, draft cpd.AnnouncementDraft, _ string) error {
	f.drafts = append(f.drafts, draft)
	return f.err
}

var _ = Describe("Directory", func() {
	var (
		ctx     context.Context
		slogger *slog.Logger
		body    string
		status  int
		client  *remoteapi.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		status = http.StatusOK
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		DeferCleanup(server.Close)
		client = remoteapi.NewClient(remoteapi.Config{BaseURL: server.URL}, slogger)
	})

	Describe("Leaders", func() {
		It("lists every leader with an optional phone", func() {
			body = `{"success":true,"leaders":[
				{"name":"Aisha","designation":"Director of Nursing","department":"Nursing","email":"aisha@example.com","phone":96891234567},
				{"name":"Salim","designation":"Head Nurse","department":"ICU","email":"salim@example.com"}]}`
			leaders := directory.NewLeaders(client, slogger)

			Expect(leaders.Load(ctx)).To(Succeed())
			page := leaders.Page()
			Expect(page.Empty).To(BeFalse())
			Expect(page.Leaders).To(HaveLen(2))
			Expect(page.Leaders[0].Phone).To(Equal("96891234567"))
			Expect(page.Leaders[1].Phone).To(BeEmpty())
		})

		It("shows the placeholder for an empty board", func() {
			body = `{"success":true,"leaders":[]}`
			leaders := directory.NewLeaders(client, slogger)
			Expect(leaders.Load(ctx)).To(Succeed())
			Expect(leaders.Page().Empty).To(BeTrue())
		})

		It("shows the placeholder when the fetch fails", func() {
			body = `{"success":false,"message":"Sheet 'Leaders' not found"}`
			leaders := directory.NewLeaders(client, slogger)
			Expect(leaders.Load(ctx)).NotTo(Succeed())
			Expect(leaders.Page().Empty).To(BeTrue())
		})

		It("re-reads the board on every visit", func() {
			body = `{"success":true,"leaders":[{"name":"Aisha","designation":"Director of Nursing","department":"Nursing"}]}`
			leaders := directory.NewLeaders(client, slogger)
			Expect(leaders.Load(ctx)).To(Succeed())
			Expect(leaders.Page().Leaders).To(HaveLen(1))

			body = `{"success":false,"message":"Sheet 'Leaders' not found"}`
			Expect(leaders.Load(ctx)).NotTo(Succeed())
			Expect(leaders.Page().Empty).To(BeTrue())
		})
	})

	Describe("Announcements", func() {
		now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

		newAnnouncements := func() *directory.Announcements {
			return directory.NewAnnouncements(client, time.UTC, slogger).WithClock(func() time.Time { return now })
		}

		It("orders by severity and keeps the backend order within a level", func() {
			body = `{"success":true,"announcements":[
				{"title":"Low one","message":"a","priority":"Low","createdDate":"2025-03-01"},
				{"title":"Normal one","message":"b","priority":"Normal","createdDate":"2025-03-02"},
				{"title":"High one","message":"c","priority":"High","createdDate":"2025-03-03"},
				{"title":"Odd one","message":"d","priority":"Urgent-ish","createdDate":"2025-03-04"},
				{"title":"Medium one","message":"e","priority":"Medium","createdDate":"2025-03-05"},
				{"title":"High two","message":"f","priority":"High","createdDate":"2025-03-06"}]}`
			announcements := newAnnouncements()
			Expect(announcements.Load(ctx)).To(Succeed())

			var titles []string
			for _, card := range announcements.Page().Announcements {
				titles = append(titles, card.Title)
			}
			Expect(titles).To(Equal([]string{"High one", "High two", "Medium one", "Normal one", "Odd one", "Low one"}))
		})

		It("decorates each card by priority and formats its dates", func() {
			body = `{"success":true,"announcements":[
				{"title":"Audit","message":"Bring **badges**","priority":"High","createdDate":"2025-03-03","expiryDate":"2025-04-01"},
				{"title":"Info","message":"<script>alert(1)</script>","priority":"Bogus","createdDate":""}]}`
			announcements := newAnnouncements()
			Expect(announcements.Load(ctx)).To(Succeed())
			cards := announcements.Page().Announcements

			Expect(cards[0].Class).To(Equal("danger"))
			Expect(cards[0].Icon).To(Equal("exclamation-triangle"))
			Expect(cards[0].Created).To(Equal("March 3, 2025"))
			Expect(cards[0].CreatedAgo).To(Equal("1 week ago"))
			Expect(cards[0].Expires).To(Equal("April 1, 2025"))
			Expect(string(cards[0].Body)).To(ContainSubstring("<strong>badges</strong>"))

			Expect(cards[1].Class).To(Equal("info"))
			Expect(cards[1].Icon).To(Equal("info-circle"))
			Expect(cards[1].Created).To(Equal("TBA"))
			Expect(cards[1].Expires).To(BeEmpty())
			Expect(string(cards[1].Body)).NotTo(ContainSubstring("<script>"))
		})

		DescribeTable("priority styling",
			func(priority, class, icon string, severity int) {
				Expect(directory.PriorityClass(priority)).To(Equal(class))
				Expect(directory.PriorityIcon(priority)).To(Equal(icon))
				Expect(directory.Severity(priority)).To(Equal(severity))
			},
			Entry("High", "High", "danger", "exclamation-triangle", 3),
			Entry("Medium", "Medium", "warning", "exclamation-circle", 2),
			Entry("Normal", "Normal", "info", "info-circle", 1),
			Entry("Low", "Low", "secondary", "info-circle", 0),
			Entry("unknown", "", "info", "info-circle", 1),
		)

		It("shows the placeholder on failure", func() {
			status = http.StatusBadGateway
			announcements := newAnnouncements()
			Expect(announcements.Load(ctx)).NotTo(Succeed())
			Expect(announcements.Page().Empty).To(BeTrue())
		})

		It("refreshes after a new announcement only once shown", func() {
			body = `{"success":true,"announcements":[]}`
			announcements := newAnnouncements()
			ev := events.NewAnnouncementCreatedEvent("Audit", "A1")

			Expect(announcements.OnAcknowledgedMutation(ctx, ev)).To(Succeed())
			Expect(announcements.Page().Empty).To(BeTrue())

			Expect(announcements.Load(ctx)).To(Succeed())
			body = `{"success":true,"announcements":[{"title":"Audit","message":"x","priority":"High"}]}`
			Expect(announcements.OnAcknowledgedMutation(ctx, ev)).To(Succeed())
			Expect(announcements.Page().Announcements).To(HaveLen(1))
		})
	})

	Describe("Service", func() {
		var (
			creator   *fakeCreator
			service   *directory.Service
			bus       *events.EventBus
			published int
			admin     *session.User
		)

		BeforeEach(func() {
			creator = &fakeCreator{}
			service = directory.NewService(creator, time.UTC, slogger)
			bus = events.NewEventBus(slogger)
			published = 0
			bus.Subscribe(events.EventTypeAnnouncementCreated, func(context.Context, events.Event) error {
				published++
				return nil
			})
			admin = &session.User{StaffID: "A1", Role: session.RoleAdmin}
		})

		It("creates a valid announcement and announces it", func() {
			draft := cpd.AnnouncementDraft{Title: "Audit", Message: "Bring badges", Priority: "High"}
			Expect(service.CreateAnnouncement(ctx, draft, admin, bus)).To(Succeed())
			Expect(creator.drafts).To(HaveLen(1))
			Expect(published).To(Equal(1))
		})

		It("rejects an invalid draft without calling the backend", func() {
			draft := cpd.AnnouncementDraft{Title: "", Message: "x", Priority: "Urgent"}
			err := service.CreateAnnouncement(ctx, draft, admin, bus)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(creator.drafts).To(BeEmpty())
			Expect(published).To(BeZero())
		})

		It("rejects an expiry date in the past", func() {
			draft := cpd.AnnouncementDraft{Title: "Old", Message: "x", Priority: "Low", ExpiryDate: "2000-01-01"}
			err := service.CreateAnnouncement(ctx, draft, admin, bus)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("does not announce a rejected write", func() {
			creator.err = internal.NewBusinessError("Sheet is protected")
			draft := cpd.AnnouncementDraft{Title: "Audit", Message: "x", Priority: "Normal"}
			Expect(service.CreateAnnouncement(ctx, draft, admin, bus)).NotTo(Succeed())
			Expect(published).To(BeZero())
		})
	})
})
