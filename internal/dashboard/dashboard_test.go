package dashboard_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/dashboard"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const dashboardBody = `{
  "success": true,
  "kpis": {"totalStaff": 1250, "totalParticipants": "310", "totalRegistrations": 480, "avgCPDHours": 6.5},
  "eventsPerMonth": {"labels": ["Jan", "Feb"], "values": [3, 5]},
  "participantsPerEvent": {"labels": ["BLS"], "values": [40]},
  "participantsPerDept": {"labels": ["ICU", "ER"], "values": [20, 12]},
  "staffPerDept": {"labels": ["ICU"], "values": ["55"]},
  "departmentSummary": [
    {"department": "ICU", "totalStaff": 55, "participants": 44, "participationRate": 80, "nonParticipants": 11},
    {"department": "ER", "totalStaff": 40, "participants": 22, "participationRate": 55, "nonParticipants": 18},
    {"department": "OPD", "totalStaff": 30, "participants": 6, "participationRate": 20, "nonParticipants": 24}
  ],
  "filterInfo": {"availableYears": [2024, 2025], "selectedYear": %q, "currentYear": "2025", "showAllYears": %t}
}`

type sequencedSource struct {
	calls   int
	respond func(call int, year string) (*cpd.Dashboard, error)
}

func (s *sequencedSource) DashboardData(_ context.Context, year string) (*cpd.Dashboard, error) {
	s.calls++
	return s.respond(s.calls, year)
}

var _ = Describe("Dashboard", func() {
	var (
		ctx     context.Context
		slogger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newRemoteView := func(handler http.HandlerFunc) *dashboard.View {
		server := httptest.NewServer(handler)
		DeferCleanup(server.Close)
		client := remoteapi.NewClient(remoteapi.Config{BaseURL: server.URL}, slogger)
		return dashboard.NewView(client, nil, slogger)
	}

	Describe("a successful load", func() {
		var view *dashboard.View

		BeforeEach(func() {
			view = newRemoteView(func(w http.ResponseWriter, r *http.Request) {
				year := r.URL.Query().Get("year")
				if year == "" {
					year = "2025"
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, dashboardBody, year, false)
			})
		})

		It("formats counters and treats missing ones as zero", func() {
			Expect(view.Load(ctx, "")).To(Succeed())
			snap := view.Snapshot()

			Expect(snap.ShowContent).To(BeTrue())
			Expect(snap.KPIs).To(HaveLen(5))
			Expect(snap.KPIs[0].Value).To(Equal("1,250"))
			Expect(snap.KPIs[1].Value).To(Equal("310"))
			Expect(snap.KPIs[3].Value).To(Equal("0"))
			Expect(snap.KPIs[4].Value).To(Equal("6.5"))
		})

		It("draws every chart, with empty data for an absent series", func() {
			Expect(view.Load(ctx, "")).To(Succeed())
			charts := view.Snapshot().Charts

			Expect(charts).To(HaveLen(len(dashboard.ChartSpecs)))
			Expect(charts[0].Kind).To(Equal(dashboard.ChartLine))
			Expect(charts[1].Horizontal).To(BeTrue())
			Expect(charts[3].ID).To(Equal("participantsPerUnit"))
			Expect(charts[3].Labels).To(BeEmpty())
			Expect(charts[4].Values).To(Equal([]float64{55}))
		})

		It("destroys the previous chart instances before drawing new ones", func() {
			Expect(view.Load(ctx, "")).To(Succeed())
			first := view.Snapshot().Charts[0].Instance

			Expect(view.Load(ctx, "2024")).To(Succeed())
			live, destroyed := view.Charts()
			Expect(live).To(Equal(len(dashboard.ChartSpecs)))
			Expect(destroyed).To(Equal(len(dashboard.ChartSpecs)))
			Expect(view.Snapshot().Charts[0].Instance).NotTo(Equal(first))
		})

		It("builds the year options once and only moves the selection afterwards", func() {
			Expect(view.Load(ctx, "")).To(Succeed())
			snap := view.Snapshot()
			Expect(snap.Years).To(Equal([]dashboard.YearOption{
				{Value: "", Label: "All Years"},
				{Value: "2024", Label: "2024"},
				{Value: "2025", Label: "2025"},
			}))
			Expect(snap.SelectedYear).To(Equal("2025"))
			Expect(snap.FilterInfo).To(Equal("Showing data for current year (2025)"))

			Expect(view.Load(ctx, "2024")).To(Succeed())
			snap = view.Snapshot()
			Expect(snap.Years).To(HaveLen(3))
			Expect(snap.SelectedYear).To(Equal("2024"))
			Expect(snap.FilterInfo).To(Equal("Filtered by year: 2024"))
		})

		It("colours participation rates", func() {
			Expect(view.Load(ctx, "")).To(Succeed())
			summary := view.Snapshot().Summary
			Expect(summary).To(HaveLen(3))
			Expect(summary[0].RateClass).To(Equal("success"))
			Expect(summary[0].RateText).To(Equal("80%"))
			Expect(summary[1].RateClass).To(Equal("warning"))
			Expect(summary[2].RateClass).To(Equal("danger"))
		})
	})

	It("describes an all-years scope", func() {
		view := newRemoteView(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, dashboardBody, "", true)
		})
		Expect(view.Load(ctx, "")).To(Succeed())
		Expect(view.Snapshot().FilterInfo).To(Equal("Showing data for all years (2024, 2025)"))
	})

	It("shows the empty-table text when there is no summary", func() {
		view := newRemoteView(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true}`))
		})
		Expect(view.Load(ctx, "")).To(Succeed())
		snap := view.Snapshot()
		Expect(snap.Summary).To(BeEmpty())
		Expect(snap.EmptySummary).To(Equal("No data available"))
		Expect(snap.Years).To(BeEmpty())
	})

	Describe("failure panels", func() {
		It("explains an unconfigured API without calling it", func() {
			source := &sequencedSource{}
			view := dashboard.NewView(source, func() bool { return false }, slogger)

			err := view.Load(ctx, "")
			Expect(internal.IsType(err, internal.ErrorTypeConfiguration)).To(BeTrue())
			Expect(source.calls).To(BeZero())

			snap := view.Snapshot()
			Expect(snap.ShowContent).To(BeFalse())
			Expect(snap.Panel.Kind).To(Equal(dashboard.PanelNotConfigured))
		})

		It("shows a connection error for an HTTP status failure", func() {
			view := newRemoteView(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})
			Expect(view.Load(ctx, "")).NotTo(Succeed())
			panel := view.Snapshot().Panel
			Expect(panel.Kind).To(Equal(dashboard.PanelConnection))
			Expect(panel.Message).To(Equal("HTTP error! status: 500"))
		})

		It("shows the backend's reason in the generic panel", func() {
			view := newRemoteView(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"success":false,"message":"Sheet 'Registrations' not found"}`))
			})
			Expect(view.Load(ctx, "")).NotTo(Succeed())
			panel := view.Snapshot().Panel
			Expect(panel.Kind).To(Equal(dashboard.PanelGeneric))
			Expect(panel.Message).To(Equal("Sheet 'Registrations' not found"))
		})

		It("falls back to a generic message when the backend gives none", func() {
			view := newRemoteView(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"success":false}`))
			})
			Expect(view.Load(ctx, "")).NotTo(Succeed())
			Expect(view.Snapshot().Panel.Message).To(Equal(dashboard.MsgLoadFailed))
		})
	})

	It("discards a response overtaken by a newer load", func() {
		var view *dashboard.View
		source := &sequencedSource{}
		source.respond = func(call int, year string) (*cpd.Dashboard, error) {
			if call == 1 {
				// a second load starts and finishes while the first is in flight
				Expect(view.Load(ctx, "2024")).To(Succeed())
				return &cpd.Dashboard{KPIs: cpd.KPIs{TotalEvents: 1}}, nil
			}
			return &cpd.Dashboard{KPIs: cpd.KPIs{TotalEvents: 2}}, nil
		}
		view = dashboard.NewView(source, nil, slogger)

		Expect(view.Load(ctx, "")).To(MatchError(dashboard.ErrStaleResponse))
		Expect(view.Snapshot().KPIs[3].Value).To(Equal("2"))
	})

	It("keeps the content hidden after a failure that follows a success", func() {
		source := &sequencedSource{respond: func(call int, _ string) (*cpd.Dashboard, error) {
			if call == 1 {
				return &cpd.Dashboard{}, nil
			}
			return nil, internal.NewExternalError("Unable to reach the CPD service", internal.ErrCodeRemoteUnavailable, nil)
		}}
		view := dashboard.NewView(source, nil, slogger)

		Expect(view.Load(ctx, "")).To(Succeed())
		Expect(view.Load(ctx, "")).NotTo(Succeed())
		snap := view.Snapshot()
		Expect(snap.Loaded).To(BeTrue())
		Expect(snap.ShowContent).To(BeFalse())
		Expect(snap.Panel.Message).To(Equal("Unable to reach the CPD service"))
	})
})
