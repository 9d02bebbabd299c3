package chart

import (
	"fmt"
	"math"

	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/fredbi/pivotviz/internal/pkg/view"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultFontSize = 12
	defaultSize     = 300
	axisNameGap     = 32
	percent         = 100
)

// tooltipFormatter shows the series, the x label and the value before stacking, which is
// the last dimension of every data item.
const tooltipFormatter = `function (p) {
  var v = p.value;
  var head = p.seriesName ? p.seriesName + '<br/>' : '';
  return head + 'x: ' + v[0] + '<br/>y: ' + v[v.length - 1];
}`

// Chart renders a [model.Chart] with go-echarts.
//
// Dot charts are rendered as scatter charts, Line charts as lines, Bar charts as overlapping bars
// and Area charts as filled lines. Stacked series are drawn in reverse order, so that every series
// covers the ones stacked upon it.
type Chart struct {
	options

	model.Chart
}

// NewChart prepares a model chart for rendering.
func NewChart(c model.Chart, opts ...Option) *Chart {
	return &Chart{
		options: optionsWithDefaults(opts),
		Chart:   c,
	}
}

// Build creates the ECharts chart.
func (c *Chart) Build() components.Charter {
	switch c.ChartType {
	case view.ChartLine:
		return c.buildLine(false)
	case view.ChartArea:
		return c.buildLine(true)
	case view.ChartBar:
		return c.buildBar()
	case view.ChartDot:
		return c.buildScatter()
	default:
		return c.buildScatter()
	}
}

func (c *Chart) buildScatter() *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(c.globalOptions()...)
	if !c.X.Continuous {
		scatter.SetXAxis(c.X.Labels)
	}

	size := int(math.Round(c.Display.CircleSize))
	for _, s := range c.Series {
		data := make([]echartsopts.ScatterData, 0, len(s.Points))
		for _, p := range s.Points {
			data = append(data, echartsopts.ScatterData{
				Name:       p.Label,
				Value:      c.value(p),
				SymbolSize: size,
			})
		}

		scatter.AddSeries(s.Label, data, c.itemStyle(s))
	}

	return scatter
}

func (c *Chart) buildLine(area bool) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(c.globalOptions()...)
	if !c.X.Continuous {
		line.SetXAxis(c.X.Labels)
	}

	for i, s := range c.paintOrder() {
		for j, half := range c.halves(s) {
			if area && c.IsStacked() && c.Y.Continuous {
				c.addBand(line, s, half, fmt.Sprintf("band-%d-%d", i, j))

				continue
			}

			data := make([]echartsopts.LineData, 0, len(half))
			for _, p := range half {
				data = append(data, echartsopts.LineData{
					Name:  p.Label,
					Value: c.value(p),
				})
			}

			seriesOpts := []charts.SeriesOpts{c.itemStyle(s), c.lineStyle(s)}
			if area {
				seriesOpts = append(seriesOpts,
					charts.WithLineChartOpts(echartsopts.LineChart{Symbol: "none"}),
					c.areaStyle(s),
				)
			}

			line.AddSeries(s.Label, data, seriesOpts...)
		}
	}

	return line
}

// addBand fills the polygon outlining a stacked half: an invisible line runs along the bases,
// and the heights up to the tops are stacked upon it.
func (c *Chart) addBand(line *charts.Line, s model.Series, half []model.Point, stack string) {
	outline := model.Polygon(half)
	n := len(half)

	bases := make([]echartsopts.LineData, 0, n)
	heights := make([]echartsopts.LineData, 0, n)
	for i := range n {
		base, top := outline[i], outline[2*n-1-i]
		x := c.vertexX(base)
		height := top.Y - base.Y
		bases = append(bases, echartsopts.LineData{Name: base.Label, Value: []any{x, base.Y, height}})
		heights = append(heights, echartsopts.LineData{Name: base.Label, Value: []any{x, height, height}})
	}

	line.AddSeries(s.Label, bases,
		charts.WithLineChartOpts(echartsopts.LineChart{Stack: stack, Symbol: "none"}),
		charts.WithLineStyleOpts(echartsopts.LineStyle{Opacity: echartsopts.Float(0)}),
	)
	line.AddSeries(s.Label, heights,
		c.itemStyle(s),
		c.lineStyle(s),
		charts.WithLineChartOpts(echartsopts.LineChart{Stack: stack, Symbol: "none"}),
		c.areaStyle(s),
	)
}

func (c *Chart) lineStyle(s model.Series) charts.SeriesOpts {
	return charts.WithLineStyleOpts(echartsopts.LineStyle{
		Color: s.Color,
		Width: float32(c.Display.LineWidth),
	})
}

func (c *Chart) areaStyle(s model.Series) charts.SeriesOpts {
	return charts.WithAreaStyleOpts(echartsopts.AreaStyle{
		Color:   s.Color,
		Opacity: echartsopts.Float(float32(c.opacity())),
	})
}

func (c *Chart) buildBar() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(c.globalOptions()...)
	if !c.X.Continuous {
		bar.SetXAxis(c.X.Labels)
	}

	barOpts := echartsopts.BarChart{
		BarGap: "-100%", // stacked bars are drawn over each other
	}
	if c.Display.BarWidth > 0 {
		barOpts.BarWidth = fmt.Sprintf("%g%%", c.Display.BarWidth*percent)
	}

	for _, s := range c.paintOrder() {
		for _, half := range c.halves(s) {
			bars := model.Bars(half)
			data := make([]echartsopts.BarData, 0, len(bars))
			for _, p := range bars {
				data = append(data, echartsopts.BarData{
					Name:  p.Label,
					Value: c.value(p),
				})
			}

			bar.AddSeries(s.Label, data, c.itemStyle(s), charts.WithBarChartOpts(barOpts))
		}
	}

	return bar
}

// paintOrder returns the series in drawing order: reversed for stacked charts.
func (c *Chart) paintOrder() []model.Series {
	if !c.IsStacked() {
		return c.Series
	}

	reversed := make([]model.Series, 0, len(c.Series))
	for i := len(c.Series) - 1; i >= 0; i-- {
		reversed = append(reversed, c.Series[i])
	}

	return reversed
}

// halves returns the point sets to draw for a series. Halves with only empty bars are skipped.
func (c *Chart) halves(s model.Series) [][]model.Point {
	halves := s.Halves()
	if !c.IsStacked() {
		return halves
	}

	drawn := make([][]model.Point, 0, len(halves))
	for _, half := range halves {
		if len(model.Bars(half)) == 0 {
			continue
		}

		drawn = append(drawn, half)
	}

	return drawn
}

// vertexX is the x coordinate of a polygon vertex: the value on a continuous axis, the label otherwise.
func (c *Chart) vertexX(v model.Vertex) any {
	if c.X.Continuous {
		return v.X.Float()
	}

	return v.Label
}

// value builds a data item: x, y and the value before stacking.
func (c *Chart) value(p model.Point) []any {
	var x any = p.Label
	if c.X.Continuous {
		x = p.X.Float()
	}

	if !c.Y.Continuous {
		return []any{x, p.YLabel}
	}

	return []any{x, p.Y, p.Unstacked()}
}

func (c *Chart) itemStyle(s model.Series) charts.SeriesOpts {
	return charts.WithItemStyleOpts(echartsopts.ItemStyle{
		Color:   s.Color,
		Opacity: echartsopts.Float(float32(c.opacity())),
	})
}

func (c *Chart) opacity() float64 {
	if c.Display.Opacity <= 0 {
		return 1
	}

	return c.Display.Opacity
}

func (c *Chart) globalOptions() []charts.GlobalOpts {
	titleSize := int(math.Round(c.Display.PlotTitleSize))
	if titleSize <= 0 {
		titleSize = defaultFontSize
	}

	return []charts.GlobalOpts{
		charts.WithInitializationOpts(echartsopts.Initialization{
			Theme:  c.Theme,
			Width:  pixels(c.Display.PlotWidth),
			Height: pixels(c.Display.PlotHeight),
		}),
		charts.WithTitleOpts(echartsopts.Title{
			Title: c.Title,
			TitleStyle: &echartsopts.TextStyle{
				FontSize: titleSize,
			},
		}),
		charts.WithLegendOpts(c.legend()),
		charts.WithToolboxOpts(echartsopts.Toolbox{
			Left: "right",
			Feature: &echartsopts.ToolBoxFeature{
				SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
					Title: "Save as image",
				},
			},
		}),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:      echartsopts.Bool(true),
			Trigger:   "item",
			Formatter: echartsopts.FuncOpts(tooltipFormatter),
		}),
		charts.WithGridOpts(echartsopts.Grid{
			Bottom: "80",
			Top:    "60",
		}),
		charts.WithXAxisOpts(c.xAxis()),
		charts.WithYAxisOpts(c.yAxis()),
	}
}

func (c *Chart) legend() echartsopts.Legend {
	hasSeries := len(c.Series) > 0 && c.Series[0].Label != ""
	if !hasSeries || c.Legend == config.LegendPositionNone {
		return echartsopts.Legend{Show: echartsopts.Bool(false)}
	}

	legend := echartsopts.Legend{
		Show: echartsopts.Bool(true),
		Type: "scroll",
	}
	if len(c.Order) > 0 {
		legend.Data = c.Order
	}

	switch c.Legend {
	case config.LegendPositionTop:
		legend.Top = "30"
	case config.LegendPositionBottom:
		legend.Bottom = "0"
	case config.LegendPositionLeft:
		legend.Left = "0"
		legend.Top = "middle"
		legend.Orient = "vertical"
	default:
		legend.Right = "0"
		legend.Top = "middle"
		legend.Orient = "vertical"
	}

	return legend
}

func (c *Chart) xAxis() echartsopts.XAxis {
	axis := echartsopts.XAxis{
		Name:         c.X.Title,
		NameLocation: "middle",
		NameGap:      axisNameGap,
		AxisLabel: &echartsopts.AxisLabel{
			Show:     echartsopts.Bool(true),
			Rotate:   c.Display.XMajorLabelOrientation,
			FontSize: fontSize(c.Display.XMajorLabelSize),
		},
	}

	if !c.X.Continuous {
		axis.Type = "category"
		axis.AxisLabel.Interval = "0"

		return axis
	}

	axis.Type = "value"
	axis.Scale = echartsopts.Bool(true)
	if c.X.Min != nil {
		axis.Min = *c.X.Min
	}
	if c.X.Max != nil {
		axis.Max = *c.X.Max
	}

	return axis
}

func (c *Chart) yAxis() echartsopts.YAxis {
	axis := echartsopts.YAxis{
		Name:         c.Y.Title,
		NameLocation: "middle",
		NameGap:      axisNameGap + axisNameGap/2, //nolint:mnd
		AxisLabel: &echartsopts.AxisLabel{
			Show:     echartsopts.Bool(true),
			FontSize: fontSize(c.Display.YMajorLabelSize),
		},
	}

	if !c.Y.Continuous {
		axis.Type = "category"
		axis.Data = c.Y.Labels

		return axis
	}

	axis.Type = "value"
	axis.Scale = echartsopts.Bool(true)
	if c.Y.Min != nil {
		axis.Min = *c.Y.Min
	}
	if c.Y.Max != nil {
		axis.Max = *c.Y.Max
	}

	return axis
}

func pixels(size int) string {
	if size <= 0 {
		size = defaultSize
	}

	return fmt.Sprintf("%dpx", size)
}

func fontSize(size float64) int {
	if size <= 0 {
		return defaultFontSize
	}

	return int(math.Round(size))
}
