package dashboard

import (
	"fmt"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

const AllYearsLabel = "All Years"

type YearOption struct {
	Value string
	Label string
}

// YearFilter is the year dropdown. Its options are built from the first
// response that lists available years; later loads only move the selection.
type YearFilter struct {
	Options   []YearOption
	Selected  string
	populated bool
}

func (y *YearFilter) Apply(info *cpd.FilterInfo) {
	if info == nil || info.AvailableYears == nil {
		return
	}
	y.Selected = info.SelectedYear.String()
	if y.populated {
		return
	}
	y.Options = append(y.Options, YearOption{Value: "", Label: AllYearsLabel})
	for _, year := range info.AvailableYears {
		y.Options = append(y.Options, YearOption{Value: year.String(), Label: year.String()})
	}
	y.populated = true
}

func (y *YearFilter) Populated() bool {
	return y.populated
}

// FilterText describes which years the figures cover.
func FilterText(info *cpd.FilterInfo) string {
	if info == nil {
		return ""
	}
	if info.ShowAllYears {
		years := make([]string, len(info.AvailableYears))
		for i, year := range info.AvailableYears {
			years[i] = year.String()
		}
		return fmt.Sprintf("Showing data for all years (%s)", strings.Join(years, ", "))
	}
	if info.SelectedYear == info.CurrentYear {
		return fmt.Sprintf("Showing data for current year (%s)", info.SelectedYear)
	}
	return fmt.Sprintf("Filtered by year: %s", info.SelectedYear)
}
