package dashboard

import (
	"github.com/dustin/go-humanize"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

const NoSummaryData = "No data available"

type KPI struct {
	ID    string
	Label string
	Value string
}

// KPIs formats the headline counters; missing values read as zero.
func KPIs(k cpd.KPIs) []KPI {
	return []KPI{
		{ID: "total-staff", Label: "Total Staff", Value: humanize.Comma(int64(k.TotalStaff.Int()))},
		{ID: "unique-participants", Label: "Unique Participants", Value: humanize.Comma(int64(k.TotalParticipants.Int()))},
		{ID: "total-registrations", Label: "Total Registrations", Value: humanize.Comma(int64(k.TotalRegistrations.Int()))},
		{ID: "total-events", Label: "Total Events", Value: humanize.Comma(int64(k.TotalEvents.Int()))},
		{ID: "avg-hours", Label: "Avg CPD Hours", Value: humanize.FtoaWithDigits(k.AvgCPDHours.Float(), 1)},
	}
}

type SummaryRow struct {
	Department      string
	TotalStaff      int
	Participants    int
	Rate            float64
	RateText        string
	RateClass       string
	NonParticipants int
}

func RateClass(rate float64) string {
	switch {
	case rate >= 75:
		return "success"
	case rate >= 50:
		return "warning"
	default:
		return "danger"
	}
}

func Summary(rows []cpd.DepartmentSummary) []SummaryRow {
	out := make([]SummaryRow, 0, len(rows))
	for _, r := range rows {
		rate := r.ParticipationRate.Float()
		out = append(out, SummaryRow{
			Department:      r.Department,
			TotalStaff:      r.TotalStaff.Int(),
			Participants:    r.Participants.Int(),
			Rate:            rate,
			RateText:        humanize.FtoaWithDigits(rate, 1) + "%",
			RateClass:       RateClass(rate),
			NonParticipants: r.NonParticipants.Int(),
		})
	}
	return out
}
