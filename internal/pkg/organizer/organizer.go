// Package organizer arranges the derived table into charts: it explodes the table into
// several charts, splits each chart into colored series and stacks series when required.
package organizer

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

// Organizer rearranges a derived table into a visualization [model.Scenario].
type Organizer struct {
	options

	l *slog.Logger
}

// New builds an [Organizer] ready to lay out derived tables.
func New(opts ...Option) *Organizer {
	return &Organizer{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "organizer")),
	}
}

// Scenarize lays out a derived table as a [model.Scenario]: one chart per explode group.
//
// An incomplete view or a derived table without rows yields a scenario without charts.
func (o *Organizer) Scenarize(derived *table.Table, v *view.View) *model.Scenario {
	scenario := &model.Scenario{
		Name: o.name,
	}

	if !v.IsComplete() {
		o.l.Info("x or y not selected: no charts")

		return scenario
	}

	if derived.IsEmpty() {
		o.l.Warn("no data left to chart")

		return scenario
	}

	scenario.Legend = o.Legend(derived, v)

	groups := Explode(derived, v)
	scenario.Charts = make([]model.Chart, 0, len(groups))
	for i, group := range groups {
		scenario.Charts = append(scenario.Charts, o.chart(i, group, derived, v))
	}

	o.l.Info("resolved charts", slog.Int("charts", len(scenario.Charts)), slog.Int("series", len(scenario.Legend)))

	return scenario
}

func (o *Organizer) chart(i int, group Group, derived *table.Table, v *view.View) model.Chart {
	xAxis, xOf := xAxis(group.Data, v)
	chart := model.Chart{
		ID:        fmt.Sprintf("chart-%d", i+1),
		Title:     group.Title(v.Display.PlotTitle),
		ChartType: v.ChartType,
		X:         xAxis,
		Y:         yAxis(group.Data, v),
		Display:   v.Display,
	}

	parts := o.Partition(group.Data, derived, v)
	series := make([]model.Series, 0, len(parts))
	for _, part := range parts {
		series = append(series, model.Series{
			Label:  part.Label,
			Color:  part.Color,
			Points: points(part.Data, v, xOf),
		})
	}

	if v.ChartType.IsStacked() {
		if v.Y.IsContinuous() {
			series = Stack(series)
		} else {
			o.l.Warn("discrete y values are not stacked", slog.String("chart_id", chart.ID), slog.String("y", v.Y.Name()))
		}
	}

	chart.Series = series

	return chart
}

// xLocator returns the x value of a row and its label.
type xLocator func(t *table.Table, row int) (table.Value, string)

// xAxis builds the x axis of a chart.
//
// When x is grouped, x values are labeled "<group> <x>" and the axis lists the x values of each group,
// followed by a blank spacer entry that separates groups.
func xAxis(t *table.Table, v *view.View) (model.Axis, xLocator) {
	x := v.X.Name()
	axis := model.Axis{
		Title: titleOrDefault(v.Display.XTitle, x),
	}

	if v.XGroup.IsSet() && t.Has(v.XGroup.Name()) {
		group := v.XGroup.Name()
		xs := t.Distinct(x)
		for i, g := range t.Distinct(group) {
			for _, value := range xs {
				axis.Labels = append(axis.Labels, composite(g, value))
			}
			axis.Labels = append(axis.Labels, strings.Repeat(" ", i+1))
		}

		return axis, func(t *table.Table, row int) (table.Value, string) {
			label := composite(t.Value(group, row), t.Value(x, row))

			return table.String(label), label
		}
	}

	if v.X.IsContinuous() {
		axis.Continuous = true
		axis.Min = v.Display.XMin
		axis.Max = v.Display.XMax
	} else {
		axis.Labels = sortedLabels(t, x)
	}

	return axis, func(t *table.Table, row int) (table.Value, string) {
		value := t.Value(x, row)

		return value, value.String()
	}
}

func yAxis(t *table.Table, v *view.View) model.Axis {
	y := v.Y.Name()
	axis := model.Axis{
		Title: titleOrDefault(v.Display.YTitle, y),
	}

	if v.Y.IsContinuous() {
		axis.Continuous = true
		axis.Min = v.Display.YMin
		axis.Max = v.Display.YMax

		return axis
	}

	axis.Labels = sortedLabels(t, y)

	return axis
}

func points(t *table.Table, v *view.View, xOf xLocator) []model.Point {
	y := v.Y.Name()
	pts := make([]model.Point, 0, t.Len())

	for row := range t.Len() {
		x, label := xOf(t, row)
		p := model.Point{X: x, Label: label}
		value := t.Value(y, row)
		if v.Y.IsContinuous() {
			p.Y = value.Float()
		} else {
			p.YLabel = value.String()
		}

		pts = append(pts, p)
	}

	return pts
}

func composite(group, x table.Value) string {
	return group.String() + " " + x.String()
}

func sortedLabels(t *table.Table, column string) []string {
	values := t.Distinct(column)
	slices.SortFunc(values, table.Compare)

	labels := make([]string, 0, len(values))
	for _, value := range values {
		labels = append(labels, value.String())
	}

	return labels
}

func titleOrDefault(title, column string) string {
	if title != "" {
		return title
	}

	return config.Titleize(column)
}
