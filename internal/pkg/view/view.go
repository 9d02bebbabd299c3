// Package view resolves widget values into a validated, typed view configuration.
//
// A [View] is immutable: any change in widget values produces a new [View] with [Build].
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

var (
	// ErrInvalidNumber is returned when a numeric widget holds a value that cannot be parsed.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidOption is returned when a widget holds a value outside of its options.
	ErrInvalidOption = errors.New("invalid option")
)

// Column is a column resolved against the classification of a table.
//
// The zero value stands for "None".
type Column struct {
	name       string
	continuous bool
}

// Name of the column, or the empty string when unset.
func (c Column) Name() string {
	return c.name
}

// IsSet reports whether a column is selected.
func (c Column) IsSet() bool {
	return c.name != ""
}

// IsContinuous reports whether the column holds numbers.
func (c Column) IsContinuous() bool {
	return c.continuous
}

func (c Column) String() string {
	if c.name == "" {
		return NoneValue
	}

	return c.name
}

// Filter holds the active values of a filterable column.
type Filter struct {
	Column Column
	Labels []string

	numbers map[float64]struct{}
	strings map[string]struct{}
}

// Contains reports whether a value is active. Numbers compare numerically, strings literally.
func (f Filter) Contains(v table.Value) bool {
	if v.IsNumber() {
		_, ok := f.numbers[v.Float()]

		return ok
	}

	_, ok := f.strings[v.String()]

	return ok
}

// IsEmpty reports whether no value is active.
func (f Filter) IsEmpty() bool {
	return len(f.Labels) == 0
}

// Display holds the parameters that only affect rendering.
//
// Optional bounds and scale factors are nil when not set.
type Display struct {
	PlotTitle              string
	PlotTitleSize          float64
	PlotWidth              int
	PlotHeight             int
	Opacity                float64
	XScale                 *float64
	XMin                   *float64
	XMax                   *float64
	YScale                 *float64
	YMin                   *float64
	YMax                   *float64
	XTitle                 string
	XTitleSize             float64
	XMajorLabelSize        float64
	XMajorLabelOrientation float64
	YTitle                 string
	YTitleSize             float64
	YMajorLabelSize        float64
	CircleSize             float64
	BarWidth               float64
	LineWidth              float64
}

// View is the validated configuration consumed by the pipeline, the organizer and the chart builder.
type View struct {
	X            Column
	XGroup       Column
	Y            Column
	Weight       Column
	Series       Column
	Explode      Column
	ExplodeGroup Column
	AdvCol       Column

	Agg       Agg
	Op        Op
	Base      Base
	ChartType ChartType
	Filters   map[string]Filter
	Display   Display

	// Warnings reports the widget values that were dropped while building the view.
	Warnings []string

	widgets Widgets
}

// IsComplete reports whether both axes are set, i.e. whether there is anything to chart.
func (v *View) IsComplete() bool {
	return v.X.IsSet() && v.Y.IsSet()
}

// GroupKeys returns the names of the grouping columns, by precedence:
// explode_group, explode, series, x_group, x. Unset columns are omitted.
func (v *View) GroupKeys() []string {
	keys := make([]string, 0, 5) //nolint:mnd
	for _, c := range []Column{v.ExplodeGroup, v.Explode, v.Series, v.XGroup, v.X} {
		if c.IsSet() {
			keys = append(keys, c.Name())
		}
	}

	return keys
}

// Widgets returns the widget values effectively applied, i.e. without dropped values.
func (v *View) Widgets() Widgets {
	return v.widgets
}

// Filter returns the filter configured for a column, if any.
func (v *View) Filter(name string) (Filter, bool) {
	f, ok := v.Filters[name]

	return f, ok
}

// Build validates widget values against the classification of the current table.
//
// Unknown column names are dropped and reported in [View.Warnings]. A column may be used only once
// among x, y, x_group, series, explode and explode_group: later duplicates are dropped.
//
// Values that cannot be parsed (numbers, options) are errors.
func Build(w Widgets, cls table.Classification) (*View, error) {
	b := builder{
		cls: cls,
		l:   slog.Default().With(slog.String("module", "view")),
		v:   &View{},
	}

	return b.build(w)
}

type builder struct {
	cls table.Classification
	l   *slog.Logger
	v   *View
}

func (b *builder) build(w Widgets) (*View, error) {
	v := b.v
	used := make(map[string]string)

	// in precedence order for duplicate detection
	v.X = b.column("x", &w.X, b.cls.Has, used)
	v.Y = b.column("y", &w.Y, b.cls.Has, used)
	v.XGroup = b.column("x_group", &w.XGroup, b.cls.IsSeriesable, used)
	v.Series = b.column("series", &w.Series, b.cls.IsSeriesable, used)
	v.Explode = b.column("explode", &w.Explode, b.cls.IsSeriesable, used)
	v.ExplodeGroup = b.column("explode_group", &w.ExplodeGroup, b.cls.IsSeriesable, used)
	v.Weight = b.column("y_weight", &w.YWeight, b.cls.Has, nil)
	v.AdvCol = b.column("adv_col", &w.AdvCol, b.cls.Has, nil)

	var err error

	if v.Agg, err = ParseAgg(w.YAgg); err != nil {
		return nil, err
	}

	if v.Op, err = ParseOp(w.AdvOp); err != nil {
		return nil, err
	}

	if v.ChartType, err = ParseChartType(w.ChartType); err != nil {
		return nil, err
	}

	if v.AdvCol.IsSet() {
		if v.Base, err = parseBase(w.AdvColBase, v.AdvCol); err != nil {
			return nil, err
		}
	} else if !isNone(w.AdvColBase) {
		b.warn("adv_col_base", w.AdvColBase, "no adv_col selected")
		w.AdvColBase = NoneValue
	}

	if err = b.display(w); err != nil {
		return nil, err
	}

	w.Filters = b.filters(w.Filters)
	v.widgets = w

	return v, nil
}

// column resolves a column widget. The widget value is reset to None when the column is dropped.
func (b *builder) column(key string, value *string, valid func(string) bool, used map[string]string) Column {
	name := strings.TrimSpace(*value)
	if isNone(name) {
		*value = NoneValue

		return Column{}
	}

	if !valid(name) {
		b.warn(key, name, "column not available")
		*value = NoneValue

		return Column{}
	}

	if used != nil {
		if other, ok := used[name]; ok {
			b.warn(key, name, "column already used by "+other)
			*value = NoneValue

			return Column{}
		}
		used[name] = key
	}

	return Column{name: name, continuous: b.cls.IsContinuous(name)}
}

func (b *builder) filters(in map[int][]int) map[int][]int {
	if len(in) == 0 {
		return nil
	}

	b.v.Filters = make(map[string]Filter, len(in))
	out := make(map[int][]int, len(in))

	for j, active := range in {
		if j >= len(b.cls.Filterable) {
			b.warn(filterKey(j), fmt.Sprint(active), "no such filterable column")

			continue
		}

		name := b.cls.Filterable[j]
		labels := b.cls.FilterLabels(name)
		f := Filter{
			Column:  Column{name: name, continuous: b.cls.IsContinuous(name)},
			Labels:  make([]string, 0, len(active)),
			numbers: make(map[float64]struct{}, len(active)),
			strings: make(map[string]struct{}, len(active)),
		}
		kept := make([]int, 0, len(active))

		for _, idx := range active {
			if idx < 0 || idx >= len(labels) {
				b.warn(filterKey(j), strconv.Itoa(idx), "label index out of range")

				continue
			}

			label := labels[idx]
			kept = append(kept, idx)
			f.Labels = append(f.Labels, label)

			if !f.Column.IsContinuous() {
				f.strings[label] = struct{}{}

				continue
			}

			n, err := strconv.ParseFloat(label, 64)
			if err != nil {
				continue // labels of continuous columns are printed numbers
			}
			f.numbers[n] = struct{}{}
		}

		b.v.Filters[name] = f
		out[j] = kept
	}

	return out
}

func (b *builder) display(w Widgets) error {
	d := &b.v.Display
	d.PlotTitle = w.PlotTitle
	d.XTitle = w.XTitle
	d.YTitle = w.YTitle

	floats := []struct {
		key   string
		value string
		dest  *float64
	}{
		{"plot_title_size", w.PlotTitleSize, &d.PlotTitleSize},
		{"opacity", w.Opacity, &d.Opacity},
		{"x_title_size", w.XTitleSize, &d.XTitleSize},
		{"x_major_label_size", w.XMajorLabelSize, &d.XMajorLabelSize},
		{"x_major_label_orientation", w.XMajorLabelOrientation, &d.XMajorLabelOrientation},
		{"y_title_size", w.YTitleSize, &d.YTitleSize},
		{"y_major_label_size", w.YMajorLabelSize, &d.YMajorLabelSize},
		{"circle_size", w.CircleSize, &d.CircleSize},
		{"bar_width", w.BarWidth, &d.BarWidth},
		{"line_width", w.LineWidth, &d.LineWidth},
	}

	for _, f := range floats {
		if strings.TrimSpace(f.value) == "" {
			continue
		}

		n, err := parseFloat(f.key, f.value)
		if err != nil {
			return err
		}
		*f.dest = n
	}

	ints := []struct {
		key   string
		value string
		dest  *int
	}{
		{"plot_width", w.PlotWidth, &d.PlotWidth},
		{"plot_height", w.PlotHeight, &d.PlotHeight},
	}

	for _, i := range ints {
		if strings.TrimSpace(i.value) == "" {
			continue
		}

		n, err := parseFloat(i.key, i.value)
		if err != nil {
			return err
		}
		*i.dest = int(math.Round(n))
	}

	optionals := []struct {
		key   string
		value string
		dest  **float64
	}{
		{"x_scale", w.XScale, &d.XScale},
		{"x_min", w.XMin, &d.XMin},
		{"x_max", w.XMax, &d.XMax},
		{"y_scale", w.YScale, &d.YScale},
		{"y_min", w.YMin, &d.YMin},
		{"y_max", w.YMax, &d.YMax},
	}

	for _, o := range optionals {
		if strings.TrimSpace(o.value) == "" {
			continue
		}

		n, err := parseFloat(o.key, o.value)
		if err != nil {
			return err
		}
		*o.dest = &n
	}

	return nil
}

func (b *builder) warn(key, value, reason string) {
	msg := fmt.Sprintf("%s=%q dropped: %s", key, value, reason)
	b.v.Warnings = append(b.v.Warnings, msg)
	b.l.Warn("widget value dropped",
		slog.String("widget", key),
		slog.String("value", value),
		slog.String("reason", reason),
	)
}

func parseFloat(key, value string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("widget %s: %q: %w", key, value, ErrInvalidNumber)
	}

	return n, nil
}
