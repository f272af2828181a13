package projection

import (
	"fmt"
	"math"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/pkg/constants"
)

// First-year ramp applied to each annualized revenue stream.
const (
	MembershipRampY1 = 0.83
	HourlyRampY1     = 0.85
	EventsRampY1     = 0.85
	AncillaryRampY1  = 0.80
)

// Expense inflation relative to year 1.
const (
	FixedInflationY2    = 1.03
	StaffingInflationY2 = 1.10
	FixedInflationY3    = 1.06
	StaffingInflationY3 = 1.18
)

// MonthlyRamp is the share of full-rate revenue earned in each month of year 1.
// It applies to every stream alike and is not the same curve as the annual
// per-stream ramp above; the two are kept as they are in the model.
var MonthlyRamp = [constants.MonthsPerYear]float64{0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1.0, 1.0, 1.0, 1.0, 1.0}

// MonthLabels names the months of the first-year series.
var MonthLabels = [constants.MonthsPerYear]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// lineItem is one revenue sub-item at full monthly rate.
type lineItem struct {
	amount float64
	growth float64
}

// modifier scales a line item given its growth rate.
type modifier func(growth float64) float64

func fullRate(float64) float64 { return 1 }

func grownYears(years int) modifier {
	return func(growth float64) float64 {
		return math.Pow(1+growth, float64(years))
	}
}

type revenueLines struct {
	membership []lineItem
	hourly     []lineItem
	events     []lineItem
	ancillary  []lineItem
}

func linesOf(a assumptions.Set) revenueLines {
	return revenueLines{
		membership: []lineItem{
			{a.StudentFee * a.StudentMembers, a.StudentGrowth},
			{a.ArtistFee * a.ArtistMembers, a.ArtistGrowth},
			{a.ProFee * a.ProMembers, a.ProGrowth},
		},
		hourly: []lineItem{
			{a.RehearsalRate * a.RehearsalHours, a.RehearsalGrowth},
			{a.RecordingRate * a.RecordingHours, a.RecordingGrowth},
			{a.LessonRate * a.LessonHours * a.LessonCommission, a.LessonGrowth},
		},
		events: []lineItem{
			{a.StreamingRate * a.StreamingEvents, a.StreamingGrowth},
			{a.ShowcaseRate * a.ShowcaseEvents, a.ShowcaseGrowth},
			{a.CorporateRate * a.CorporateEvents, a.CorporateGrowth},
		},
		ancillary: []lineItem{
			{a.MerchAvg * a.MerchSales, a.MerchGrowth},
			{a.RentalAvg * a.RentalSales, a.RentalGrowth},
			{a.BevAvg * a.BevSales, a.BevGrowth},
		},
	}
}

func familyTotal(items []lineItem, mod modifier) float64 {
	total := 0.0
	for _, item := range items {
		total += item.amount * mod(item.growth)
	}
	return total
}

// monthly returns the monthly revenue of every stream with mod applied.
func (l revenueLines) monthly(mod modifier) Families {
	return Families{
		Membership: familyTotal(l.membership, mod),
		Hourly:     familyTotal(l.hourly, mod),
		Events:     familyTotal(l.events, mod),
		Ancillary:  familyTotal(l.ancillary, mod),
	}
}

func annualize(f Families) Families {
	return Families{
		Membership: f.Membership * constants.MonthsPerYear,
		Hourly:     f.Hourly * constants.MonthsPerYear,
		Events:     f.Events * constants.MonthsPerYear,
		Ancillary:  f.Ancillary * constants.MonthsPerYear,
	}
}

func projectYears(a assumptions.Set, monthlyFixed, monthlyStaffing, totalStartup float64) [constants.ProjectionYears]Year {
	lines := linesOf(a)

	full := annualize(lines.monthly(fullRate))
	y1 := Families{
		Membership: full.Membership * MembershipRampY1,
		Hourly:     full.Hourly * HourlyRampY1,
		Events:     full.Events * EventsRampY1,
		Ancillary:  full.Ancillary * AncillaryRampY1,
	}
	y2 := annualize(lines.monthly(grownYears(1)))
	y3 := annualize(lines.monthly(grownYears(2)))

	expensesY1 := (monthlyFixed * constants.MonthsPerYear) + (monthlyStaffing * constants.MonthsPerYear)
	expensesY2 := (monthlyFixed * constants.MonthsPerYear * FixedInflationY2) +
		(monthlyStaffing * constants.MonthsPerYear * StaffingInflationY2) + a.OwnerDrawY2
	expensesY3 := (monthlyFixed * constants.MonthsPerYear * FixedInflationY3) +
		(monthlyStaffing * constants.MonthsPerYear * StaffingInflationY3) + a.OwnerDrawY3

	var years [constants.ProjectionYears]Year
	var cumulative float64
	for i, year := range []struct {
		revenue  Families
		expenses float64
	}{
		{y1, expensesY1},
		{y2, expensesY2},
		{y3, expensesY3},
	} {
		revenue := year.revenue.Total()
		net := revenue - year.expenses
		if i == 0 {
			cumulative = net - totalStartup
		} else {
			cumulative += net
		}
		years[i] = Year{
			Label:         fmt.Sprintf("Year %d", i+1),
			Revenue:       year.revenue,
			TotalRevenue:  revenue,
			TotalExpenses: year.expenses,
			NetIncome:     net,
			Cumulative:    cumulative,
			Margin:        Ratio(net / revenue),
		}
	}
	return years
}

func projectMonths(a assumptions.Set, monthlyExpenses, totalStartup float64) ([constants.MonthsPerYear]Month, int) {
	base := linesOf(a).monthly(fullRate)

	var months [constants.MonthsPerYear]Month
	breakEven := NoBreakEven
	cumulative := -totalStartup
	for i, factor := range MonthlyRamp {
		m := Month{
			Label:      MonthLabels[i],
			Factor:     factor,
			Membership: base.Membership * factor,
			Hourly:     base.Hourly * factor,
			Events:     base.Events * factor,
			Ancillary:  base.Ancillary * factor,
			Expenses:   monthlyExpenses,
		}
		m.Revenue = m.Membership + m.Hourly + m.Events + m.Ancillary
		m.Net = m.Revenue - m.Expenses
		cumulative += m.Net
		m.Cumulative = cumulative
		if breakEven == NoBreakEven && cumulative > 0 {
			breakEven = i + 1
		}
		months[i] = m
	}
	return months, breakEven
}
