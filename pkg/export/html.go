package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/rdbstat/pkg/plotpage"
)

// HTMLSuffix is the file suffix of the interactive chart page.
const HTMLSuffix = "_chart.html"

// Axis titles for the HTML charts.
const (
	XLabelTimed   = "secs"
	XLabelIndexed = "sample"
)

var chartIDSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

type chartGroup struct {
	unit    string
	indexed bool
	metrics []Metric
}

// groupMetrics buckets metrics by unit and axis kind, keeping first-seen order.
func groupMetrics(metrics []Metric) []chartGroup {
	var groups []chartGroup

	for _, m := range metrics {
		found := false

		for i := range groups {
			if groups[i].unit == m.Unit && groups[i].indexed == m.Series.Indexed {
				groups[i].metrics = append(groups[i].metrics, m)
				found = true

				break
			}
		}

		if !found {
			groups = append(groups, chartGroup{unit: m.Unit, indexed: m.Series.Indexed, metrics: []Metric{m}})
		}
	}

	return groups
}

func chartID(group chartGroup) string {
	id := "chart_" + chartIDSanitizer.ReplaceAllString(strings.ToLower(group.unit), "_")
	if group.indexed {
		id += "_indexed"
	}

	return id
}

func xySeries(m Metric) plotpage.XYSeries {
	points := make([]plotpage.XYPoint, 0, m.Series.Len())

	for _, p := range m.Series.Points {
		y, parseErr := strconv.ParseFloat(p.Y, 64)
		if parseErr != nil {
			continue
		}

		points = append(points, plotpage.XYPoint{X: p.X, Y: y})
	}

	return plotpage.XYSeries{Name: m.DisplayName, Data: points}
}

// BuildPage assembles one chart section per unit and axis kind.
func BuildPage(ds *Dataset, opts Options) *plotpage.Page {
	theme := plotpage.ParseTheme(opts.Theme)
	cOpts := plotpage.NewChartOpts(theme)

	page := plotpage.NewPage(ds.BaseName, "RocksDB statistics from "+ds.Source).WithTheme(theme)

	for _, group := range groupMetrics(ds.Metrics) {
		xLabel := XLabelTimed
		if group.indexed {
			xLabel = XLabelIndexed
		}

		series := make([]plotpage.XYSeries, len(group.metrics))
		for i, m := range group.metrics {
			series[i] = xySeries(m)
		}

		page.Add(plotpage.Section{
			Title:    group.unit,
			Subtitle: fmt.Sprintf("%d metric(s) over %s", len(group.metrics), xLabel),
			Chart:    plotpage.BuildXYLineChart(cOpts, chartID(group), xLabel, group.unit, series),
		})
	}

	return page
}

// WriteHTML writes the interactive chart page as "{dir}/{base}_chart.html".
func WriteHTML(dir string, ds *Dataset, opts Options) (string, error) {
	var buf bytes.Buffer

	renderErr := BuildPage(ds, opts).Render(&buf)
	if renderErr != nil {
		return "", fmt.Errorf("render chart page: %w", renderErr)
	}

	path := ArtifactPath(dir, ds.BaseName, HTMLSuffix)

	err := writeFile(path, buf.Bytes())
	if err != nil {
		return "", err
	}

	return path, nil
}
