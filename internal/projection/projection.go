// Package projection computes the derived financial outlook of the studio from
// one set of assumptions.
//
// Project is a pure function: it reads nothing but its argument, keeps no
// state between calls and is safe for concurrent use. Division by a zero
// revenue or capacity is not guarded; the affected ratios come back as NaN or
// ±Inf and callers decide how to present them.
package projection

import (
	"encoding/json"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"github.com/iwvelando/studio-forecast/pkg/mathutil"
)

// NoBreakEven is the BreakEvenMonth reported when cumulative cash never turns
// positive within the first twelve months.
const NoBreakEven = 0

// Ratio is a quotient that may be NaN or infinite. It encodes as JSON null
// when it is not finite.
type Ratio float64

// Finite reports whether r is a usable number.
func (r Ratio) Finite() bool {
	return mathutil.IsFinite(float64(r))
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// Families splits revenue into the four revenue streams.
type Families struct {
	Membership float64 `json:"membership"`
	Hourly     float64 `json:"hourly"`
	Events     float64 `json:"events"`
	Ancillary  float64 `json:"ancillary"`
}

// Total sums the four streams.
func (f Families) Total() float64 {
	return f.Membership + f.Hourly + f.Events + f.Ancillary
}

// Year holds the aggregates for one projection year.
type Year struct {
	Label         string   `json:"label"`
	Revenue       Families `json:"revenue"`
	TotalRevenue  float64  `json:"totalRevenue"`
	TotalExpenses float64  `json:"totalExpenses"`
	NetIncome     float64  `json:"netIncome"`
	Cumulative    float64  `json:"cumulative"`
	Margin        Ratio    `json:"margin"`
}

// Month is one entry of the first-year cash flow series.
type Month struct {
	Label      string  `json:"month"`
	Factor     float64 `json:"factor"`
	Membership float64 `json:"membership"`
	Hourly     float64 `json:"hourly"`
	Events     float64 `json:"events"`
	Ancillary  float64 `json:"ancillary"`
	Revenue    float64 `json:"revenue"`
	Expenses   float64 `json:"expenses"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// Slice is a named value for pie and bar breakdowns.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// YearSummary is one bar of the three-year comparison.
type YearSummary struct {
	Year       string  `json:"year"`
	Revenue    float64 `json:"revenue"`
	Expenses   float64 `json:"expenses"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// Projection is the complete derived outlook for one assumption set.
type Projection struct {
	StartupSubtotal float64 `json:"startupSubtotal"`
	Contingency     float64 `json:"contingency"`
	TotalStartup    float64 `json:"totalStartup"`
	MonthlyFixed    float64 `json:"monthlyFixed"`
	MonthlyStaffing float64 `json:"monthlyStaffing"`

	Years [constants.ProjectionYears]Year `json:"years"`

	Capacity Capacity `json:"capacity"`
	Market   Market   `json:"market"`

	Monthly        [constants.MonthsPerYear]Month `json:"monthlyData"`
	BreakEvenMonth int                            `json:"breakEvenMonth"`

	RevenueMix     []Slice       `json:"revenueMix"`
	YearComparison []YearSummary `json:"yearComparison"`

	RevenueShare          RevenueShare          `json:"revenueShare"`
	MembershipPerMember   Ratio                 `json:"membershipRevenuePerMember"`
	StartupBreakdown      []Slice               `json:"startupBreakdown"`
	ExpenseBreakdown      []Slice               `json:"expenseBreakdown"`
	UtilizationScenarios  []UtilizationScenario `json:"utilizationScenarios"`
	ConversionSensitivity []ConversionPoint     `json:"conversionSensitivity"`
}

// Y1 returns the first projection year.
func (p Projection) Y1() Year { return p.Years[0] }

// Y2 returns the second projection year.
func (p Projection) Y2() Year { return p.Years[1] }

// Y3 returns the third projection year.
func (p Projection) Y3() Year { return p.Years[2] }

// Project derives every output from a.
func Project(a assumptions.Set) Projection {
	var p Projection

	p.StartupSubtotal = mathutil.Sum(a.Buildout, a.Equipment, a.Streaming, a.OpCapital, a.Legal, a.Marketing)
	p.Contingency = p.StartupSubtotal * a.ContingencyPct
	p.TotalStartup = p.StartupSubtotal + p.Contingency

	p.MonthlyFixed = mathutil.Sum(a.Rent, a.Utilities, a.Insurance, a.MonthlyMarketing, a.Software, a.Maintenance, a.Misc)
	p.MonthlyStaffing = (a.TechDirectorRate * a.TechDirectorHours) +
		(a.GeneralManagerRate * a.GeneralManagerHours) +
		(a.StudentWorkerRate * a.StudentWorkerHours) +
		(a.EventStaffRate * a.EventStaffHours)

	p.Years = projectYears(a, p.MonthlyFixed, p.MonthlyStaffing, p.TotalStartup)
	p.Capacity = projectCapacity(a)
	p.Market = projectMarket(a)
	p.Monthly, p.BreakEvenMonth = projectMonths(a, p.MonthlyFixed+p.MonthlyStaffing, p.TotalStartup)

	y1 := p.Years[0].Revenue
	p.RevenueMix = []Slice{
		{Name: "Membership", Value: y1.Membership},
		{Name: "Hourly Services", Value: y1.Hourly},
		{Name: "Events", Value: y1.Events},
		{Name: "Ancillary", Value: y1.Ancillary},
	}

	p.YearComparison = make([]YearSummary, 0, len(p.Years))
	for _, y := range p.Years {
		p.YearComparison = append(p.YearComparison, YearSummary{
			Year:       y.Label,
			Revenue:    y.TotalRevenue,
			Expenses:   y.TotalExpenses,
			Net:        y.NetIncome,
			Cumulative: y.Cumulative,
		})
	}

	p.addBreakdowns(a)
	return p
}
