// Package report renders a projection as an XLSX workbook.
package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/internal/projection"
	"github.com/iwvelando/studio-forecast/pkg/format"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetSummary     = "Summary"
	SheetYears       = "Years"
	SheetMonthly     = "Monthly"
	SheetAssumptions = "Assumptions"
)

// ContentType is the media type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Write renders the workbook for name, a and its projection p to w.
func Write(w io.Writer, name string, a assumptions.Set, p projection.Projection) error {
	f, err := Build(name, a, p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes renders the workbook into memory.
func Bytes(name string, a assumptions.Set, p projection.Projection) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, name, a, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build assembles the workbook. The caller closes it.
func Build(name string, a assumptions.Set, p projection.Projection) (*excelize.File, error) {
	f := excelize.NewFile()
	b := &builder{f: f}

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetSummary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, sheet := range []string{SheetYears, SheetMonthly, SheetAssumptions} {
		if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	b.header = header

	b.summary(name, p)
	b.years(p)
	b.monthly(p)
	b.assumptionSheet(a)

	if b.err != nil {
		_ = f.Close()
		return nil, b.err
	}
	return f, nil
}

// builder keeps the first error so each sheet reads as a list of rows.
type builder struct {
	f      *excelize.File
	header int
	err    error
}

func (b *builder) row(sheet string, n int, values ...interface{}) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		b.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
}

func (b *builder) headerRow(sheet string, titles ...interface{}) {
	b.row(sheet, 1, titles...)
	if b.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetCellStyle(sheet, "A1", last, b.header); err != nil {
		b.err = fmt.Errorf("%s header style: %w", sheet, err)
		return
	}
	if err := b.f.SetColWidth(sheet, "A", "A", 28); err != nil {
		b.err = fmt.Errorf("%s column width: %w", sheet, err)
	}
}

// number writes finite values as numbers and everything else as N/A.
func number(v float64) interface{} {
	if !projection.Ratio(v).Finite() {
		return format.NotAvailable
	}
	return v
}

func (b *builder) summary(name string, p projection.Projection) {
	const sheet = SheetSummary
	b.headerRow(sheet, "Metric", "Value")

	c := p.Capacity
	m := p.Market
	rows := [][]interface{}{
		{"Model", name},
		{"Startup Subtotal", p.StartupSubtotal},
		{"Contingency", p.Contingency},
		{"Total Startup", p.TotalStartup},
		{"Monthly Fixed Costs", p.MonthlyFixed},
		{"Monthly Staffing", p.MonthlyStaffing},
		{"Break-even", p.BreakEvenLabel()},
		{"Payback", p.PaybackYear()},
		{"Monthly Capacity (hrs)", c.TotalCapacity},
		{"Hours Required (hrs)", c.TotalHoursRequired},
		{"Utilization Required", float64(c.UtilizationRequired)},
		{"Utilization Target", c.UtilizationTarget},
		{"Capacity Status", c.Status},
		{"Total Addressable Market", m.TotalTAM},
		{"Projected Members", m.ProjectedMembers},
		{"TAM Revenue Estimate", m.RevenueEstimate},
		{"Membership Revenue per Member", float64(p.MembershipPerMember)},
	}
	for i, r := range rows {
		if v, ok := r[1].(float64); ok {
			r[1] = number(v)
		}
		b.row(sheet, i+2, r...)
	}
}

func (b *builder) years(p projection.Projection) {
	const sheet = SheetYears
	b.headerRow(sheet, "Year", "Membership", "Hourly Services", "Events", "Ancillary",
		"Total Revenue", "Total Expenses", "Net Income", "Cumulative", "Margin")
	for i, y := range p.Years {
		b.row(sheet, i+2,
			y.Label,
			number(y.Revenue.Membership),
			number(y.Revenue.Hourly),
			number(y.Revenue.Events),
			number(y.Revenue.Ancillary),
			number(y.TotalRevenue),
			number(y.TotalExpenses),
			number(y.NetIncome),
			number(y.Cumulative),
			number(float64(y.Margin)),
		)
	}
}

func (b *builder) monthly(p projection.Projection) {
	const sheet = SheetMonthly
	b.headerRow(sheet, "Month", "Ramp", "Membership", "Hourly Services", "Events", "Ancillary",
		"Revenue", "Expenses", "Net", "Cumulative")
	for i, m := range p.Monthly {
		b.row(sheet, i+2,
			m.Label,
			m.Factor,
			number(m.Membership),
			number(m.Hourly),
			number(m.Events),
			number(m.Ancillary),
			number(m.Revenue),
			number(m.Expenses),
			number(m.Net),
			number(m.Cumulative),
		)
	}
}

func (b *builder) assumptionSheet(a assumptions.Set) {
	const sheet = SheetAssumptions
	b.headerRow(sheet, "Field", "Label", "Group", "Value")
	for i, f := range assumptions.Fields() {
		b.row(sheet, i+2, f.Name, f.Label, f.Group, number(f.Value(a)))
	}
}
