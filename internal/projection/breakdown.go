package projection

import (
	"fmt"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/pkg/constants"
)

// RevenueShare is each stream's share of year-one revenue.
type RevenueShare struct {
	Membership Ratio `json:"membership"`
	Hourly     Ratio `json:"hourly"`
	Events     Ratio `json:"events"`
	Ancillary  Ratio `json:"ancillary"`
}

func (p *Projection) addBreakdowns(a assumptions.Set) {
	y1 := p.Years[0]
	p.RevenueShare = RevenueShare{
		Membership: Ratio(y1.Revenue.Membership / y1.TotalRevenue),
		Hourly:     Ratio(y1.Revenue.Hourly / y1.TotalRevenue),
		Events:     Ratio(y1.Revenue.Events / y1.TotalRevenue),
		Ancillary:  Ratio(y1.Revenue.Ancillary / y1.TotalRevenue),
	}
	members := a.StudentMembers + a.ArtistMembers + a.ProMembers
	p.MembershipPerMember = Ratio(y1.Revenue.Membership / members / constants.MonthsPerYear)

	p.StartupBreakdown = []Slice{
		{Name: "Buildout", Value: a.Buildout},
		{Name: "Equipment", Value: a.Equipment},
		{Name: "Streaming", Value: a.Streaming},
		{Name: "Operating Capital", Value: a.OpCapital},
		{Name: "Legal/Permits", Value: a.Legal},
		{Name: "Marketing", Value: a.Marketing},
		{Name: "Contingency", Value: p.Contingency},
	}
	p.ExpenseBreakdown = []Slice{
		{Name: "Rent", Value: a.Rent},
		{Name: "Utilities", Value: a.Utilities},
		{Name: "Insurance", Value: a.Insurance},
		{Name: "Marketing", Value: a.MonthlyMarketing},
		{Name: "Software", Value: a.Software},
		{Name: "Maintenance", Value: a.Maintenance},
		{Name: "Misc", Value: a.Misc},
		{Name: "Staffing", Value: p.MonthlyStaffing},
	}

	p.UtilizationScenarios = scenariosFor(p.Capacity)
	p.ConversionSensitivity = sensitivityFor(p.Market)
}

// PaybackYear names the first projection year whose cumulative cash is
// non-negative.
func (p Projection) PaybackYear() string {
	switch {
	case p.Years[0].Cumulative >= 0:
		return "Year 1"
	case p.Years[1].Cumulative >= 0:
		return "Year 2"
	default:
		return "Year 3+"
	}
}

// BreakEvenLabel renders BreakEvenMonth for display.
func (p Projection) BreakEvenLabel() string {
	if p.BreakEvenMonth == NoBreakEven {
		return "Year 2+"
	}
	return fmt.Sprintf("Month %d", p.BreakEvenMonth)
}
