package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/go-echarts/go-echarts/v2/components"
)

// NoCharts is displayed when there is nothing to chart.
const NoCharts = "No charts: select the x-axis and y-axis columns, or relax the filters."

var headerTemplate = template.Must(template.New("header").Parse(
	`<div class="pivotviz-header" style="font-family:sans-serif;margin:8px">
{{- if .Empty }}<p class="pivotviz-empty">{{ .Message }}</p>{{ end }}
{{- if .Legend }}<div class="pivotviz-legend">
{{- range .Legend }}<span style="margin-right:12px"><span style="color:{{ .Color }}">&#9632;</span> {{ .Label }}</span>{{ end -}}
</div>{{ end -}}
</div>
`))

// Page represents a page containing multiple charts.
//
// A [Page] knows how to [Page.Render] as HTML.
type Page struct {
	Title  string
	Charts []*Chart
	Legend []model.LegendEntry
}

// NewPage creates a new page with the given title.
func NewPage(title string) *Page {
	return &Page{
		Title: title,
	}
}

// AddChart adds a chart to the page.
func (p *Page) AddChart(c *Chart) {
	p.Charts = append(p.Charts, c)
}

// Render writes the page HTML to the given writer.
//
// The series legend, or a notice when the page has no charts, is displayed above the charts.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.SetPageTitle(p.Title)

	for _, c := range p.Charts {
		page.AddCharts(c.Build())
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("rendering charts: %w", err)
	}

	var header bytes.Buffer
	if err := headerTemplate.Execute(&header, struct {
		Empty   bool
		Message string
		Legend  []model.LegendEntry
	}{
		Empty:   len(p.Charts) == 0,
		Message: NoCharts,
		Legend:  p.Legend,
	}); err != nil {
		return fmt.Errorf("rendering page header: %w", err)
	}

	html := buf.Bytes()
	at := bytes.Index(html, []byte("<body>"))
	if at >= 0 {
		at += len("<body>")
	} else {
		at = 0
	}

	for _, part := range [][]byte{html[:at], header.Bytes(), html[at:]} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("writing page: %w", err)
		}
	}

	return nil
}
