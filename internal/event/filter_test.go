package event_test

import (
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal/event"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Filter", func() {
	var all []event.Event

	BeforeEach(func() {
		all = []event.Event{
			{ID: "E1", Name: "Basic Life Support", Department: "ICU", ApprovalStatus: "Approved", Facilitator: "Dr. Salim"},
			{ID: "E2", Name: "Wound Care", Department: "ER", ApprovalStatus: "Pending", Description: "Dressing techniques"},
			{ID: "E3", Name: "Infection Control", Department: "ICU", ApprovalStatus: "Pending", Facilitator: "Ms. Aisha"},
			{ID: "E4", Name: "Pain Assessment", Department: "icu", ApprovalStatus: "Approved"},
			{ID: "E5", Name: "Triage Update", Department: "", ApprovalStatus: "Approved"},
		}
	})

	ids := func(events []event.Event) []string {
		out := make([]string, len(events))
		for i, e := range events {
			out[i] = e.ID
		}
		return out
	}

	It("keeps every event when no filter is set", func() {
		Expect(event.Filter{}.Apply(all)).To(Equal(all))
	})

	It("matches the department exactly", func() {
		got := event.Filter{Department: "ICU"}.Apply(all)
		Expect(ids(got)).To(Equal([]string{"E1", "E3"}))
		for _, e := range got {
			Expect(e.Department).To(Equal("ICU"))
		}
	})

	It("is idempotent when reapplied", func() {
		f := event.Filter{Department: "ICU", Status: "Pending"}
		once := f.Apply(all)
		Expect(f.Apply(once)).To(Equal(once))
	})

	It("searches name, description and facilitator case-insensitively", func() {
		Expect(ids(event.Filter{Search: "WOUND"}.Apply(all))).To(Equal([]string{"E2"}))
		Expect(ids(event.Filter{Search: "dressing"}.Apply(all))).To(Equal([]string{"E2"}))
		Expect(ids(event.Filter{Search: "aisha"}.Apply(all))).To(Equal([]string{"E3"}))
	})

	It("combines filters with AND", func() {
		got := event.Filter{Search: "a", Department: "ICU", Status: "Approved"}.Apply(all)
		Expect(ids(got)).To(Equal([]string{"E1"}))
	})

	It("does not modify its input", func() {
		before := append([]event.Event(nil), all...)
		_ = event.Filter{Department: "ER"}.Apply(all)
		Expect(all).To(Equal(before))
	})

	It("lists distinct departments", func() {
		Expect(event.Departments(all)).To(Equal([]string{"ER", "ICU", "icu"}))
	})

	Describe("Upcoming", func() {
		loc := time.FixedZone("GST", 4*60*60)
		now := time.Date(2025, time.March, 10, 15, 30, 0, 0, loc)

		It("admits an event dated today at midnight and drops yesterday", func() {
			evs := []event.Event{
				{ID: "today", Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)},
				{ID: "yesterday", Date: time.Date(2025, time.March, 9, 23, 59, 0, 0, loc)},
				{ID: "tomorrow", Date: time.Date(2025, time.March, 11, 8, 0, 0, 0, loc)},
			}
			Expect(ids(event.Upcoming(evs, now))).To(Equal([]string{"today", "tomorrow"}))
		})

		It("drops undated events", func() {
			Expect(event.Upcoming([]event.Event{{ID: "undated"}}, now)).To(BeEmpty())
		})
	})
})

var _ = Describe("Event", func() {
	DescribeTable("availability colour",
		func(capacity, registered int, level, seats string) {
			e := event.Event{MaxCapacity: capacity, CurrentRegistrations: registered}
			Expect(e.AvailabilityLevel()).To(Equal(level))
			Expect(e.SeatsLabel()).To(Equal(seats))
		},
		Entry("plenty", 30, 5, "success", "25"),
		Entry("few left", 30, 25, "warning", "5"),
		Entry("exactly eleven", 20, 9, "success", "11"),
		Entry("exactly ten", 20, 10, "warning", "10"),
		Entry("full", 30, 30, "danger", "Full"),
		Entry("overbooked", 30, 32, "danger", "Full"),
	)

	It("reports negative availability when overbooked", func() {
		Expect(event.Event{MaxCapacity: 10, CurrentRegistrations: 12}.Availability()).To(Equal(-2))
	})

	It("colours only approved events as success", func() {
		Expect(event.Event{ApprovalStatus: "Approved"}.StatusLevel()).To(Equal("success"))
		Expect(event.Event{ApprovalStatus: "Pending"}.StatusLevel()).To(Equal("warning"))
		Expect(event.Event{}.StatusLabel()).To(Equal("Pending"))
	})
})
