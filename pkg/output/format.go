// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/studio-forecast/internal/projection"
	"github.com/iwvelando/studio-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, name string, p projection.Projection) error {
	pr := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf("--- Projection for %s ---\n", name)
	ew.printf("\n")
	ew.printf("Startup investment: %s (subtotal %s + contingency %s)\n",
		format.Currency(p.TotalStartup), format.Currency(p.StartupSubtotal), format.Currency(p.Contingency))
	ew.printf("Monthly operating:  %s (fixed %s + staffing %s)\n",
		format.Currency(p.MonthlyFixed+p.MonthlyStaffing), format.Currency(p.MonthlyFixed), format.Currency(p.MonthlyStaffing))
	ew.printf("Break-even:         %s\n", p.BreakEvenLabel())
	ew.printf("Payback:            %s\n", p.PaybackYear())
	ew.printf("\n")

	ew.printf("Year    | Revenue       | Expenses      | Net Income    | Cumulative    | Margin\n")
	ew.printf("____    | _____________ | _____________ | _____________ | _____________ | ______\n")
	for _, y := range p.Years {
		ew.raw(pr.Sprintf("%-7s | $%12.2f | $%12.2f | $%12.2f | $%12.2f | %s\n",
			y.Label, y.TotalRevenue, y.TotalExpenses, y.NetIncome, y.Cumulative, format.Percent(float64(y.Margin))))
	}
	ew.printf("\n")

	ew.printf("Year 1 revenue mix\n")
	for _, s := range p.RevenueMix {
		ew.raw(pr.Sprintf("  %-16s $%.2f\n", s.Name, s.Value))
	}
	ew.printf("  Membership per member per month: %s\n", format.Currency(float64(p.MembershipPerMember)))
	ew.printf("\n")

	c := p.Capacity
	ew.printf("Capacity\n")
	ew.printf("  Monthly hours:        %s\n", format.Hours(c.MonthlyHours))
	ew.printf("  Live room net:        %s\n", format.Hours(c.LiveRoomNet))
	ew.printf("  Control room net:     %s\n", format.Hours(c.ControlRoomNet))
	ew.printf("  Hours required:       %s of %s\n", format.Hours(c.TotalHoursRequired), format.Hours(c.TotalCapacity))
	ew.printf("  Utilization required: %s (target %s, %s)\n",
		format.Percent(float64(c.UtilizationRequired)), format.Percent(c.UtilizationTarget), c.Status)
	ew.printf("\n")

	m := p.Market
	ew.printf("Market\n")
	ew.raw(pr.Sprintf("  Total addressable:    %.0f musicians\n", m.TotalTAM))
	ew.raw(pr.Sprintf("  Projected members:    %.1f\n", m.ProjectedMembers))
	ew.printf("  Revenue estimate:     %s\n", format.Currency(m.RevenueEstimate))
	ew.printf("\n")

	ew.printf("Month | Revenue       | Expenses      | Net           | Cumulative\n")
	ew.printf("_____ | _____________ | _____________ | _____________ | _____________\n")
	for _, mo := range p.Monthly {
		ew.raw(pr.Sprintf("%-5s | $%12.2f | $%12.2f | $%12.2f | $%12.2f\n",
			mo.Label, mo.Revenue, mo.Expenses, mo.Net, mo.Cumulative))
	}

	return ew.err
}

// CsvFormat writes the projection as section,metric,value rows.
func CsvFormat(w io.Writer, name string, p projection.Projection) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"section", "metric", "value"}}
	add := func(section, metric string, value float64) {
		rows = append(rows, []string{section, metric, csvNumber(value)})
	}

	rows = append(rows, []string{"model", "name", name})
	add("startup", "subtotal", p.StartupSubtotal)
	add("startup", "contingency", p.Contingency)
	add("startup", "total", p.TotalStartup)
	add("operating", "monthlyFixed", p.MonthlyFixed)
	add("operating", "monthlyStaffing", p.MonthlyStaffing)

	for _, y := range p.Years {
		add(y.Label, "membership", y.Revenue.Membership)
		add(y.Label, "hourly", y.Revenue.Hourly)
		add(y.Label, "events", y.Revenue.Events)
		add(y.Label, "ancillary", y.Revenue.Ancillary)
		add(y.Label, "totalRevenue", y.TotalRevenue)
		add(y.Label, "totalExpenses", y.TotalExpenses)
		add(y.Label, "netIncome", y.NetIncome)
		add(y.Label, "cumulative", y.Cumulative)
		add(y.Label, "margin", float64(y.Margin))
	}

	c := p.Capacity
	add("capacity", "monthlyHours", c.MonthlyHours)
	add("capacity", "liveRoomNet", c.LiveRoomNet)
	add("capacity", "controlRoomNet", c.ControlRoomNet)
	add("capacity", "totalCapacity", c.TotalCapacity)
	add("capacity", "totalHoursRequired", c.TotalHoursRequired)
	add("capacity", "utilizationRequired", float64(c.UtilizationRequired))

	add("market", "totalTAM", p.Market.TotalTAM)
	add("market", "projectedMembers", p.Market.ProjectedMembers)
	add("market", "tamRevenueEstimate", p.Market.RevenueEstimate)

	for _, m := range p.Monthly {
		add("month "+m.Label, "revenue", m.Revenue)
		add("month "+m.Label, "net", m.Net)
		add("month "+m.Label, "cumulative", m.Cumulative)
	}
	rows = append(rows, []string{"summary", "breakEvenMonth", strconv.Itoa(p.BreakEvenMonth)})

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func csvNumber(v float64) string {
	if !projection.Ratio(v).Finite() {
		return format.NotAvailable
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// errWriter keeps the first write error so the report body reads linearly.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(layout string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, layout, args...)
}

func (ew *errWriter) raw(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}
