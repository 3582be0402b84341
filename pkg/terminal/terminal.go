// Package terminal renders run reports and the metric registry for humans.
package terminal

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/rdbstat/pkg/engine"
	"github.com/Sumatoshi-tech/rdbstat/pkg/registry"
	"github.com/Sumatoshi-tech/rdbstat/pkg/stats"
)

const valuePrecision = 2

const msgNoMetrics = "No metrics extracted"

// Printer writes run output to a terminal.
type Printer struct {
	out   io.Writer
	saved *color.Color
	warn  *color.Color
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	saved := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	if noColor {
		saved.DisableColor()
		warn.DisableColor()
	} else {
		saved.EnableColor()
		warn.EnableColor()
	}

	return &Printer{out: out, saved: saved, warn: warn}
}

// Saved prints one line per written artifact in write order.
func (p *Printer) Saved(report *engine.Report) {
	for _, m := range report.Metrics {
		p.saved.Fprintf(p.out, "Saved %s to %s\n", m.DisplayName, m.CSVPath)
	}

	p.saved.Fprintf(p.out, "Saved coordinates to %s\n", report.CoordinatesPath)

	for _, path := range report.Artifacts()[len(report.Metrics)+1:] {
		p.saved.Fprintf(p.out, "Saved %s\n", path)
	}
}

// Warnings prints notices about ignored keys, empty metrics and index fallback.
func (p *Printer) Warnings(report *engine.Report) {
	if len(report.Ignored) > 0 {
		p.warn.Fprintf(p.out, "Ignored unknown metrics: %v\n", report.Ignored)
	}

	if report.AxisFallback {
		p.warn.Fprintf(p.out, "No time axis found, metrics plotted by sample index\n")
	}

	for _, m := range report.Metrics {
		if len(m.Values) == 0 {
			p.warn.Fprintf(p.out, "%s matched nothing\n", m.Key)
		}
	}
}

// Summary prints the per-metric summary table.
func (p *Printer) Summary(report *engine.Report) {
	fmt.Fprintln(p.out, SummaryTable(report))
}

// Registry prints the metric registry table.
func (p *Printer) Registry(reg *registry.Registry) {
	fmt.Fprintln(p.out, RegistryTable(reg))
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

// SummaryTable renders one row per extracted metric.
func SummaryTable(report *engine.Report) string {
	if len(report.Metrics) == 0 {
		return msgNoMetrics
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Metric", "Unit", "Points", "Last", "Min", "Max", "Mean", "P99"})

	for _, m := range report.Metrics {
		tbl.AppendRow(append(table.Row{m.Key, m.Unit, m.Series.Len()}, summaryCells(m.Summary)...))
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d metrics, %d cycles", len(report.Metrics), len(report.Axis))})

	return tbl.Render()
}

func summaryCells(s stats.Summary) table.Row {
	if s.Empty() {
		return table.Row{"-", "-", "-", "-", "-"}
	}

	return table.Row{
		formatValue(s.Last),
		formatValue(s.Min),
		formatValue(s.Max),
		formatValue(s.Mean),
		formatValue(s.P99),
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', valuePrecision, 64)
}

// RegistryTable renders the registry in selection order.
func RegistryTable(reg *registry.Registry) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Key", "Name", "Unit", "Axis", "Pattern"})

	for _, spec := range reg.Specs() {
		axis := "index"
		if spec.Timed {
			axis = "time"
		}

		tbl.AppendRow(table.Row{spec.Key, spec.DisplayName, spec.Unit, axis, spec.Pattern.String()})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d metrics", reg.Len())})

	return tbl.Render()
}
