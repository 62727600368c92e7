package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
)

type Source interface {
	DashboardData(ctx context.Context, year string) (*cpd.Dashboard, error)
}

type PanelKind string

const (
	PanelNotConfigured PanelKind = "not_configured"
	PanelConnection    PanelKind = "connection"
	PanelGeneric       PanelKind = "generic"
)

const (
	MsgNotConfigured = "API URL not configured. Please update the portal configuration with your Google Apps Script URL."
	MsgLoadFailed    = "Failed to load dashboard"
)

// ErrStaleResponse is returned for a load overtaken by a newer one.
var ErrStaleResponse = errors.New("dashboard response superseded by a newer load")

// Panel replaces the dashboard content after a failed load.
type Panel struct {
	Kind    PanelKind
	Title   string
	Message string
	Hint    string
}

// View is the analytics dashboard of one browser profile.
type View struct {
	source     Source
	configured func() bool
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	issued   uint64
	applied  uint64
	charts   *Charts
	years    YearFilter
	info     string
	kpis     []KPI
	summary  []SummaryRow
	panel    *Panel
	loaded   bool
	loadedAt time.Time
}

func NewView(source Source, configured func() bool, logger *slog.Logger) *View {
	if configured == nil {
		configured = func() bool { return true }
	}
	return &View{
		source:     source,
		configured: configured,
		logger:     logger,
		now:        time.Now,
		charts:     NewCharts(),
	}
}

// Load fetches the dashboard, optionally scoped to one year. Each call takes
// a sequence number; a response arriving after a newer one was applied is
// dropped with ErrStaleResponse.
func (v *View) Load(ctx context.Context, year string) error {
	v.mu.Lock()
	v.issued++
	seq := v.issued
	v.mu.Unlock()

	if !v.configured() {
		err := internal.NewConfigurationError(MsgNotConfigured, internal.ErrCodeAPINotConfigured)
		v.logger.WarnContext(ctx, "dashboard requested without a configured API URL")
		v.apply(ctx, seq, func() { v.panel = failurePanel(err) })
		return err
	}

	data, err := v.source.DashboardData(ctx, year)

	var applied bool
	if err != nil {
		v.logger.ErrorContext(ctx, "error loading dashboard", "year", year, "error", err)
		applied = v.apply(ctx, seq, func() { v.panel = failurePanel(err) })
	} else {
		applied = v.apply(ctx, seq, func() { v.render(data) })
	}
	if !applied {
		return ErrStaleResponse
	}
	return err
}

// apply runs fn under the lock unless a newer load has already been applied.
func (v *View) apply(ctx context.Context, seq uint64, fn func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seq < v.applied {
		v.logger.InfoContext(ctx, "discarding stale dashboard response", "seq", seq, "applied", v.applied)
		return false
	}
	v.applied = seq
	fn()
	return true
}

// render must be called with mu held.
func (v *View) render(data *cpd.Dashboard) {
	if data.FilterInfo != nil {
		v.years.Apply(data.FilterInfo)
		v.info = FilterText(data.FilterInfo)
	}
	v.kpis = KPIs(data.KPIs)
	v.charts.Replace(ChartSpecs[0], data.EventsPerMonth)
	v.charts.Replace(ChartSpecs[1], data.ParticipantsPerEvent)
	v.charts.Replace(ChartSpecs[2], data.ParticipantsPerDept)
	v.charts.Replace(ChartSpecs[3], data.ParticipantsPerUnit)
	v.charts.Replace(ChartSpecs[4], data.StaffPerDept)
	v.summary = Summary(data.DepartmentSummary)
	v.panel = nil
	v.loaded = true
	v.loadedAt = v.now()
}

func failurePanel(err error) *Panel {
	switch {
	case internal.HasCode(err, internal.ErrCodeAPINotConfigured):
		return &Panel{
			Kind:    PanelNotConfigured,
			Title:   "API Not Configured",
			Message: MsgNotConfigured,
			Hint:    "Deploy the Google Apps Script, copy the deployment URL and set api.base_url (or CPD_API_BASE_URL).",
		}
	case internal.HasCode(err, internal.ErrCodeHTTPStatus):
		return &Panel{
			Kind:    PanelConnection,
			Title:   "Connection Error",
			Message: err.Error(),
			Hint:    "Please check your API URL and deployment settings.",
		}
	}

	message := MsgLoadFailed
	if appErr, ok := internal.IsAppError(err); ok && appErr.Message != "" && appErr.Message != remoteapi.DefaultFailureMessage {
		message = appErr.UserMessage()
	}
	return &Panel{
		Kind:    PanelGeneric,
		Title:   "Error Loading Dashboard",
		Message: message,
		Hint:    "Please check the server logs for more details.",
	}
}

// Snapshot is a consistent copy of the dashboard for rendering.
type Snapshot struct {
	Loaded       bool
	ShowContent  bool
	Years        []YearOption
	SelectedYear string
	FilterInfo   string
	KPIs         []KPI
	Charts       []Chart
	Summary      []SummaryRow
	EmptySummary string
	Panel        *Panel
	LoadedAt     time.Time
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		Loaded:       v.loaded,
		ShowContent:  v.loaded && v.panel == nil,
		Years:        append([]YearOption(nil), v.years.Options...),
		SelectedYear: v.years.Selected,
		FilterInfo:   v.info,
		KPIs:         append([]KPI(nil), v.kpis...),
		Charts:       v.charts.Ordered(),
		Summary:      append([]SummaryRow(nil), v.summary...),
		LoadedAt:     v.loadedAt,
	}
	if len(s.Summary) == 0 {
		s.EmptySummary = NoSummaryData
	}
	if v.panel != nil {
		p := *v.panel
		s.Panel = &p
	}
	return s
}

// Charts exposes the chart registry for instance accounting.
func (v *View) Charts() (live, destroyed int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.charts.Live(), v.charts.Destroyed()
}
