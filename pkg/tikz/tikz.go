// Package tikz accumulates metric series into a pgfplots coordinate document
// that can be \input into a LaTeX figure.
package tikz

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/Sumatoshi-tech/rdbstat/pkg/timeaxis"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	templates     *template.Template
	templatesOnce sync.Once
	errTemplates  error
)

const legendSeparator = ", "

// Layout controls the pgfplots axis environment.
type Layout struct {
	Width         string
	XLabel        string
	YLabel        string
	YMin          float64
	YMax          float64
	YTickStep     float64
	LegendColumns int
}

// DefaultLayout returns the layout used for throughput figures.
func DefaultLayout() Layout {
	return Layout{
		Width:         `0.5\textwidth`,
		YLabel:        "MB/s",
		YMin:          0,
		YMax:          250,
		YTickStep:     50,
		LegendColumns: 1,
	}
}

type headerData struct {
	Layout

	Title  string
	YTicks string
}

type footerData struct {
	Legend string
}

func getTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		var parseErr error

		templates, parseErr = template.ParseFS(templateFS, "templates/*.tmpl")
		if parseErr != nil {
			errTemplates = fmt.Errorf("parsing templates: %w", parseErr)
		}
	})

	return templates, errTemplates
}

func renderTemplate(w io.Writer, name string, data any) error {
	tmpl, err := getTemplates()
	if err != nil {
		return err
	}

	err = tmpl.ExecuteTemplate(w, name, data)
	if err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	return nil
}

// Document is the per-run accumulator of legend entries and series blocks.
// Legend entries and blocks are kept in the order they were added.
type Document struct {
	title  string
	layout Layout
	legend []string
	blocks []string
}

// NewDocument starts an empty document.
func NewDocument(title string, layout Layout) *Document {
	return &Document{title: title, layout: layout}
}

// Add renders series as an \addplot block and records name in the legend.
func (d *Document) Add(name string, series timeaxis.Series) error {
	block, err := RenderSeries(series)
	if err != nil {
		return err
	}

	d.AddBlock(name, block)

	return nil
}

// AddBlock records an already rendered block under name.
func (d *Document) AddBlock(name, block string) {
	d.legend = append(d.legend, name)
	d.blocks = append(d.blocks, block)
}

// Legend returns the legend entries in insertion order.
func (d *Document) Legend() []string {
	return append([]string(nil), d.legend...)
}

// Blocks returns the rendered series blocks in insertion order.
func (d *Document) Blocks() []string {
	return append([]string(nil), d.blocks...)
}

// Render writes the header, every block and the closing legend.
func (d *Document) Render(w io.Writer) error {
	header := headerData{
		Layout: d.layout,
		Title:  d.title,
		YTicks: yTicks(d.layout),
	}

	err := renderTemplate(w, "header", header)
	if err != nil {
		return fmt.Errorf("render header: %w", err)
	}

	for _, block := range d.blocks {
		_, err = io.WriteString(w, block)
		if err != nil {
			return fmt.Errorf("write block: %w", err)
		}
	}

	err = renderTemplate(w, "footer", footerData{Legend: strings.Join(d.legend, legendSeparator)})
	if err != nil {
		return fmt.Errorf("render footer: %w", err)
	}

	return nil
}

// RenderSeries renders one \addplot block with space separated (x,y) pairs.
func RenderSeries(series timeaxis.Series) (string, error) {
	pairs := make([]string, len(series.Points))
	for i, p := range series.Points {
		pairs[i] = "(" + FormatX(p.X, series.Indexed) + "," + p.Y + ")"
	}

	var buf bytes.Buffer

	err := renderTemplate(&buf, "series", strings.Join(pairs, " "))
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// FormatX prints indexed positions as integers and axis offsets in their
// shortest decimal form with at least one fractional digit.
func FormatX(x float64, indexed bool) string {
	if indexed {
		return strconv.FormatInt(int64(x), 10)
	}

	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

func yTicks(l Layout) string {
	if l.YTickStep <= 0 {
		return formatNumber(l.YMin) + ",...," + formatNumber(l.YMax)
	}

	return formatNumber(l.YMin) + "," + formatNumber(l.YMin+l.YTickStep) + ",...," + formatNumber(l.YMax+l.YTickStep)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
