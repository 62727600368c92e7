package dashboard

import (
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

type ChartKind string

const (
	ChartLine     ChartKind = "line"
	ChartBar      ChartKind = "bar"
	ChartDoughnut ChartKind = "doughnut"
	ChartPie      ChartKind = "pie"
)

// ChartSpec fixes how one dashboard series is drawn.
type ChartSpec struct {
	ID         string
	Kind       ChartKind
	Label      string
	Horizontal bool
}

var ChartSpecs = []ChartSpec{
	{ID: "eventsPerMonth", Kind: ChartLine, Label: "Events"},
	{ID: "participantsPerEvent", Kind: ChartBar, Label: "Participants", Horizontal: true},
	{ID: "participantsPerDept", Kind: ChartDoughnut, Label: "Participants"},
	{ID: "participantsPerUnit", Kind: ChartBar, Label: "Participants"},
	{ID: "staffPerDept", Kind: ChartPie, Label: "Staff Count"},
}

// Chart is the data model handed to the charting widget.
type Chart struct {
	ChartSpec
	Labels   []string  `json:"labels"`
	Values   []float64 `json:"values"`
	Instance int       `json:"instance"`
}

// Charts keeps at most one live instance per chart ID. Replacing a chart
// destroys the previous instance first.
type Charts struct {
	live      map[string]*Chart
	created   int
	destroyed int
}

func NewCharts() *Charts {
	return &Charts{live: make(map[string]*Chart, len(ChartSpecs))}
}

func (c *Charts) Replace(spec ChartSpec, series *cpd.Series) *Chart {
	if _, ok := c.live[spec.ID]; ok {
		delete(c.live, spec.ID)
		c.destroyed++
	}
	c.created++

	chart := &Chart{ChartSpec: spec, Labels: []string{}, Values: []float64{}, Instance: c.created}
	if series != nil {
		for _, l := range series.Labels {
			chart.Labels = append(chart.Labels, l.String())
		}
		for _, v := range series.Values {
			chart.Values = append(chart.Values, v.Float())
		}
	}
	c.live[spec.ID] = chart
	return chart
}

// Ordered returns the live charts in ChartSpecs order.
func (c *Charts) Ordered() []Chart {
	out := make([]Chart, 0, len(c.live))
	for _, spec := range ChartSpecs {
		if chart, ok := c.live[spec.ID]; ok {
			out = append(out, *chart)
		}
	}
	return out
}

func (c *Charts) Live() int {
	return len(c.live)
}

func (c *Charts) Destroyed() int {
	return c.destroyed
}
