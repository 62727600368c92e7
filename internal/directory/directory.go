package directory

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityNormal = "Normal"
	PriorityLow    = "Low"
)

var Priorities = []string{PriorityHigh, PriorityMedium, PriorityNormal, PriorityLow}

// Severity orders announcements. Unknown priorities rank as Normal.
func Severity(priority string) int {
	switch priority {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

func PriorityClass(priority string) string {
	switch priority {
	case PriorityHigh:
		return "danger"
	case PriorityMedium:
		return "warning"
	case PriorityLow:
		return "secondary"
	default:
		return "info"
	}
}

func PriorityIcon(priority string) string {
	switch priority {
	case PriorityHigh:
		return "exclamation-triangle"
	case PriorityMedium:
		return "exclamation-circle"
	default:
		return "info-circle"
	}
}

type LeaderCard struct {
	Name        string
	Designation string
	Department  string
	Email       string
	Phone       string
}

func leaderCards(recs []cpd.Leader) []LeaderCard {
	out := make([]LeaderCard, 0, len(recs))
	for _, l := range recs {
		out = append(out, LeaderCard{
			Name:        l.Name,
			Designation: l.Designation,
			Department:  l.Department,
			Email:       l.Email,
			Phone:       l.Phone.String(),
		})
	}
	return out
}

// AnnouncementCard is one announcement ready for display.
type AnnouncementCard struct {
	Title      string
	Priority   string
	Class      string
	Icon       string
	Body       template.HTML
	Created    string
	CreatedAgo string
	Expires    string
	severity   int
}

func announcementCard(a cpd.Announcement, loc *time.Location, now time.Time) AnnouncementCard {
	card := AnnouncementCard{
		Title:    a.Title,
		Priority: a.Priority,
		Class:    PriorityClass(a.Priority),
		Icon:     PriorityIcon(a.Priority),
		Body:     RenderMarkdown(a.Message),
		Created:  formatDate(a.CreatedDate.String(), loc),
		severity: Severity(a.Priority),
	}
	if t, ok := cpd.ParseDate(a.CreatedDate.String(), loc); ok && !t.After(now) {
		card.CreatedAgo = humanize.RelTime(t, now, "ago", "from now")
	}
	if a.ExpiryDate != "" {
		card.Expires = formatDate(a.ExpiryDate.String(), loc)
	}
	return card
}

// formatDate shows a backend date as "January 2, 2006"; an empty value reads
// TBA and an unparseable one is shown as sent.
func formatDate(raw string, loc *time.Location) string {
	if raw == "" {
		return "TBA"
	}
	t, ok := cpd.ParseDate(raw, loc)
	if !ok {
		return raw
	}
	return t.Format("January 2, 2006")
}
