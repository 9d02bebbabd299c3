package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/fredbi/pivotviz/internal/pkg/organizer"
	"github.com/fredbi/pivotviz/internal/pkg/pipeline"
	"github.com/fredbi/pivotviz/internal/pkg/source"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
	"github.com/go-echarts/go-echarts/v2/charts"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

// TestSmokeRenderFromExample is an end-to-end smoke test that loads the power generation example,
// runs the pipeline, organizes the charts and renders HTML output.
func TestSmokeRenderFromExample(t *testing.T) {
	cfg := mustLoadConfig(t, smokeConfig())

	raw, err := source.New().LoadFiles(examplePath("US_electric_power_generation.csv"))
	require.NoError(t, err)
	cls := table.Classify(raw, cfg.Classifier.Thresholds())

	for _, chartType := range view.AllChartTypes() {
		t.Run(chartType, func(t *testing.T) {
			w, err := view.Merge(cfg.Defaults, map[string]any{"chart_type": chartType})
			require.NoError(t, err)
			v, err := view.Build(w, cls)
			require.NoError(t, err)

			derived, err := pipeline.New(cls).Run(raw, v)
			require.NoError(t, err)

			scenario := organizer.New(organizer.WithName(cfg.Render.Title)).Scenarize(derived, v)
			require.Len(t, scenario.Charts, 2)

			page := New(cfg, scenario).BuildPage()
			require.Len(t, page.Charts, 2)

			var buf bytes.Buffer
			require.NoError(t, page.Render(&buf))

			html := buf.String()
			assert.Contains(t, html, "echarts")
			assert.Contains(t, html, "Case = Reference")
			assert.Contains(t, html, "Case = High RE")
			assert.Contains(t, html, organizer.Palette[0])
			assert.Contains(t, html, "pivotviz-legend")
			assert.NotContains(t, html, NoCharts)

			// write output for manual inspection
			outFile := filepath.Join(t.TempDir(), "smoke_test_output.html")
			require.NoError(t, os.WriteFile(outFile, buf.Bytes(), 0o600))
			t.Logf("HTML output written to: %s (%d bytes)", outFile, buf.Len())
		})
	}
}

func TestRenderEmptyPage(t *testing.T) {
	page := NewPage("Empty")

	var buf bytes.Buffer
	require.NoError(t, page.Render(&buf))

	html := buf.String()
	assert.Contains(t, html, NoCharts)
	assert.NotContains(t, html, "pivotviz-legend")
	assert.Less(t, strings.Index(html, "<body>"), strings.Index(html, NoCharts), "notice is within the body")
}

func TestBuildPageSkipsEmptyCharts(t *testing.T) {
	cfg := mustLoadConfig(t, smokeConfig())
	scenario := &model.Scenario{
		Charts: []model.Chart{
			{ID: "chart-1"},
			barChart(),
		},
	}

	page := New(cfg, scenario).BuildPage()
	require.Len(t, page.Charts, 1)
	assert.Equal(t, "Smoke Test", page.Title, "the render title is used by default")
}

func TestBuildChartTypes(t *testing.T) {
	tests := []struct {
		chartType view.ChartType
		check     func(*testing.T, any)
	}{
		{view.ChartDot, func(t *testing.T, c any) {
			scatter, ok := c.(*charts.Scatter)
			require.True(t, ok)
			assert.Len(t, scatter.MultiSeries, 2)
		}},
		{view.ChartLine, func(t *testing.T, c any) {
			line, ok := c.(*charts.Line)
			require.True(t, ok)
			assert.Len(t, line.MultiSeries, 2)
		}},
		{view.ChartArea, func(t *testing.T, c any) {
			line, ok := c.(*charts.Line)
			require.True(t, ok)
			// each drawn half is a band: an invisible base line, then heights stacked upon it.
			// Empty negative halves are not drawn.
			require.Len(t, line.MultiSeries, 6)
			assert.Equal(t, "gas", line.MultiSeries[0].Name, "stacked series are painted in reverse order")

			base, top := line.MultiSeries[0], line.MultiSeries[1]
			assert.Equal(t, base.Stack, top.Stack)
			assert.NotEqual(t, base.Stack, line.MultiSeries[2].Stack)
			require.NotNil(t, base.LineStyle)
			assert.InDelta(t, 0, float64(*base.LineStyle.Opacity), 1e-9)
			assert.Nil(t, base.AreaStyle)
			require.NotNil(t, top.AreaStyle)

			bases, ok := base.Data.([]echartsopts.LineData)
			require.True(t, ok)
			heights, ok := top.Data.([]echartsopts.LineData)
			require.True(t, ok)
			assert.Equal(t, []any{"2010", 1.0, 2.0}, bases[0].Value)
			assert.Equal(t, []any{"2010", 2.0, 2.0}, heights[0].Value)
			assert.Equal(t, []any{"2020", 3.0, 0.0}, bases[1].Value)
		}},
		{view.ChartBar, func(t *testing.T, c any) {
			bar, ok := c.(*charts.Bar)
			require.True(t, ok)
			require.Len(t, bar.MultiSeries, 3)
			assert.Equal(t, "gas", bar.MultiSeries[0].Name)
			assert.Equal(t, "coal", bar.MultiSeries[2].Name)
			assert.Equal(t, "-100%", bar.MultiSeries[0].BarGap)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.chartType.String(), func(t *testing.T) {
			mc := barChart()
			mc.ChartType = tt.chartType
			if !tt.chartType.IsStacked() {
				for i := range mc.Series {
					mc.Series[i].Negative = nil
				}
			}

			tt.check(t, NewChart(mc).Build())
		})
	}
}

func TestChartValue(t *testing.T) {
	c := NewChart(barChart())
	p := c.Series[1].Points[0]

	assert.Equal(t, []any{"2010", 3.0, 2.0}, c.value(p), "categorical x, stacked y and unstacked y")

	c.X.Continuous = true
	assert.Equal(t, []any{2010.0, 3.0, 2.0}, c.value(p))

	c.Y.Continuous = false
	p.YLabel = "high"
	assert.Equal(t, []any{2010.0, "high"}, c.value(p))
}

func TestLegend(t *testing.T) {
	tests := []struct {
		position config.LegendPosition
		wantShow bool
		check    func(*testing.T, Chart)
	}{
		{config.LegendPositionNone, false, nil},
		{config.LegendPositionBottom, true, func(t *testing.T, c Chart) {
			assert.Equal(t, "0", c.legend().Bottom)
		}},
		{config.LegendPositionLeft, true, func(t *testing.T, c Chart) {
			assert.Equal(t, "vertical", c.legend().Orient)
			assert.Equal(t, "0", c.legend().Left)
		}},
		{config.LegendPositionRight, true, func(t *testing.T, c Chart) {
			assert.Equal(t, "0", c.legend().Right)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.position), func(t *testing.T) {
			c := NewChart(barChart(), WithLegend(tt.position), WithLegendOrder([]string{"gas", "coal"}))
			legend := c.legend()
			require.NotNil(t, legend.Show)
			assert.Equal(t, tt.wantShow, *legend.Show)

			if tt.check != nil {
				tt.check(t, *c)
				assert.Equal(t, []string{"gas", "coal"}, legend.Data)
			}
		})
	}

	t.Run("without series", func(t *testing.T) {
		mc := barChart()
		mc.Series = mc.Series[:1]
		mc.Series[0].Label = ""
		legend := NewChart(mc).legend()
		require.NotNil(t, legend.Show)
		assert.False(t, *legend.Show)
	})
}

func TestAxisBounds(t *testing.T) {
	lo, hi := 2000.0, 2040.0
	mc := barChart()
	mc.X = model.Axis{Title: "Year", Continuous: true, Min: &lo, Max: &hi}

	c := NewChart(mc)
	x := c.xAxis()
	assert.Equal(t, "value", x.Type)
	assert.Equal(t, lo, x.Min)
	assert.Equal(t, hi, x.Max)

	y := c.yAxis()
	assert.Equal(t, "value", y.Type)
	assert.Nil(t, y.Min)
	require.NotNil(t, y.AxisLabel)
}

// helpers

func mustLoadConfig(t *testing.T, yamlContent string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yamlContent), 0o600))
	cfg, err := config.Load(file)
	require.NoError(t, err)
	return cfg
}

func examplePath(name string) string {
	return filepath.Join("..", "..", "..", "examples", "power", name)
}

// barChart is a stacked bar chart with two series: gas sits on coal.
func barChart() model.Chart {
	point := func(x float64, y, base float64) model.Point {
		return model.Point{X: table.Number(x), Label: table.FormatNumber(x), Y: y, Base: base}
	}

	return model.Chart{
		ID:        "chart-1",
		Title:     "Generation",
		ChartType: view.ChartBar,
		X:         model.Axis{Title: "Year", Labels: []string{"2010", "2020"}},
		Y:         model.Axis{Title: "TWh", Continuous: true},
		Series: []model.Series{
			{
				Label:    "coal",
				Color:    organizer.Palette[0],
				Points:   []model.Point{point(2010, 1, 0), point(2020, 3, 0)},
				Negative: []model.Point{point(2010, 0, 0), point(2020, 0, 0)},
			},
			{
				Label:    "gas",
				Color:    organizer.Palette[1],
				Points:   []model.Point{point(2010, 3, 1), point(2020, 3, 3)},
				Negative: []model.Point{point(2010, 0, 0), point(2020, -4, 0)},
			},
		},
		Display: view.Display{PlotWidth: 400, PlotHeight: 300, Opacity: 0.8, BarWidth: 0.5},
	}
}

func smokeConfig() string {
	return `
name: Smoke Test
render:
  title: Smoke Test
  theme: roma
  legend: bottom

defaults:
  x: Year
  y: Electricity Generation (TWh)
  y_agg: Sum
  series: Technology
  explode: Case
`
}
