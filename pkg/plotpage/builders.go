package plotpage

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// XYPoint is one point on a numeric x-axis.
type XYPoint struct {
	X float64
	Y float64
}

// XYSeries defines the properties and data for a single line on a numeric x-axis.
type XYSeries struct {
	Name  string
	Data  []XYPoint
	Color string // Optional, uses the theme palette if empty.
}

// BuildXYLineChart constructs a line chart whose x-axis is numeric rather than
// categorical. If cOpts is nil, DefaultChartOpts() is used.
func BuildXYLineChart(cOpts *ChartOpts, chartID, xAxisLabel, yAxisLabel string, series []XYSeries) *charts.Line {
	if cOpts == nil {
		cOpts = DefaultChartOpts()
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init(chartID, "100%", "450px")),
		charts.WithTooltipOpts(cOpts.Tooltip("axis")),
		charts.WithDataZoomOpts(cOpts.DataZoom()...),
		charts.WithGridOpts(cOpts.Grid()),
		charts.WithXAxisOpts(cOpts.ValueXAxis(xAxisLabel)),
		charts.WithYAxisOpts(cOpts.YAxis(yAxisLabel)),
		charts.WithLegendOpts(cOpts.Legend()),
	)

	for i, s := range series {
		lineData := make([]opts.LineData, len(s.Data))
		for j, p := range s.Data {
			lineData[j] = opts.LineData{Value: []any{p.X, p.Y}}
		}

		color := s.Color
		if color == "" {
			color = cOpts.SeriesColor(i)
		}

		var seriesOpts []charts.SeriesOpts
		if color != "" {
			seriesOpts = append(seriesOpts,
				charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: color}),
			)
		}

		line.AddSeries(s.Name, lineData, seriesOpts...)
	}

	return line
}
