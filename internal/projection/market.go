package projection

import (
	"fmt"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"github.com/iwvelando/studio-forecast/pkg/mathutil"
)

// SensitivityRates are the conversion rates, in percent, of the market
// sensitivity curve.
var SensitivityRates = []float64{0.5, 1.0, 1.2, 1.5, 2.0, 2.5, 3.0}

// Market sizes the addressable musician population.
type Market struct {
	TotalTAM         float64 `json:"totalTAM"`
	ProjectedMembers float64 `json:"projectedMembers"`
	AverageFee       float64 `json:"averageFee"`
	RevenueEstimate  float64 `json:"tamRevenueEstimate"`
	Segments         []Slice `json:"segments"`
}

// ConversionPoint is one point of the conversion sensitivity curve.
type ConversionPoint struct {
	Label   string  `json:"rate"`
	Rate    float64 `json:"ratePct"`
	Members float64 `json:"members"`
	Revenue float64 `json:"revenue"`
}

func projectMarket(a assumptions.Set) Market {
	m := Market{
		TotalTAM:   a.PrimaryMarket + a.SecondaryMarket + a.Weekenders,
		AverageFee: (a.StudentFee + a.ArtistFee + a.ProFee) / 3,
		Segments: []Slice{
			{Name: "Primary (10 min)", Value: a.PrimaryMarket},
			{Name: "Secondary (20-30 min)", Value: a.SecondaryMarket},
			{Name: "Weekenders", Value: a.Weekenders},
		},
	}
	m.ProjectedMembers = m.TotalTAM * a.ConversionRate
	m.RevenueEstimate = m.ProjectedMembers * m.AverageFee * constants.MonthsPerYear
	return m
}

func sensitivityFor(m Market) []ConversionPoint {
	out := make([]ConversionPoint, 0, len(SensitivityRates))
	for _, rate := range SensitivityRates {
		share := rate / constants.PercentageMultiplier
		out = append(out, ConversionPoint{
			Label:   fmt.Sprintf("%g%%", rate),
			Rate:    rate,
			Members: mathutil.RoundHalfUp(m.TotalTAM * share),
			Revenue: m.TotalTAM * share * m.AverageFee * constants.MonthsPerYear,
		})
	}
	return out
}
