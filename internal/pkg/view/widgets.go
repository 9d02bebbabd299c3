package view

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const filterPrefix = "filter_"

// Widgets is the flat, serializable state of all widgets.
//
// Every widget holds a string value, except filters which hold the indices of their active labels.
// Filters are keyed by the position of their column in the list of filterable columns, and
// transported as "filter_<j>" keys.
type Widgets struct {
	X            string `mapstructure:"x,omitempty"`
	XGroup       string `mapstructure:"x_group,omitempty"`
	Y            string `mapstructure:"y,omitempty"`
	YAgg         string `mapstructure:"y_agg,omitempty"`
	YWeight      string `mapstructure:"y_weight,omitempty"`
	Series       string `mapstructure:"series,omitempty"`
	Explode      string `mapstructure:"explode,omitempty"`
	ExplodeGroup string `mapstructure:"explode_group,omitempty"`
	AdvOp        string `mapstructure:"adv_op,omitempty"`
	AdvCol       string `mapstructure:"adv_col,omitempty"`
	AdvColBase   string `mapstructure:"adv_col_base,omitempty"`
	ChartType    string `mapstructure:"chart_type,omitempty"`

	PlotTitle              string `mapstructure:"plot_title,omitempty"`
	PlotTitleSize          string `mapstructure:"plot_title_size,omitempty"`
	PlotWidth              string `mapstructure:"plot_width,omitempty"`
	PlotHeight             string `mapstructure:"plot_height,omitempty"`
	Opacity                string `mapstructure:"opacity,omitempty"`
	XScale                 string `mapstructure:"x_scale,omitempty"`
	XMin                   string `mapstructure:"x_min,omitempty"`
	XMax                   string `mapstructure:"x_max,omitempty"`
	YScale                 string `mapstructure:"y_scale,omitempty"`
	YMin                   string `mapstructure:"y_min,omitempty"`
	YMax                   string `mapstructure:"y_max,omitempty"`
	XTitle                 string `mapstructure:"x_title,omitempty"`
	XTitleSize             string `mapstructure:"x_title_size,omitempty"`
	XMajorLabelSize        string `mapstructure:"x_major_label_size,omitempty"`
	XMajorLabelOrientation string `mapstructure:"x_major_label_orientation,omitempty"`
	YTitle                 string `mapstructure:"y_title,omitempty"`
	YTitleSize             string `mapstructure:"y_title_size,omitempty"`
	YMajorLabelSize        string `mapstructure:"y_major_label_size,omitempty"`
	CircleSize             string `mapstructure:"circle_size,omitempty"`
	BarWidth               string `mapstructure:"bar_width,omitempty"`
	LineWidth              string `mapstructure:"line_width,omitempty"`

	Filters map[int][]int `mapstructure:"-"`
}

// Decode builds [Widgets] from a flat map of widget values.
//
// Unknown keys are ignored. Scalar values are converted to strings, so numbers found in YAML or JSON
// documents are accepted.
func Decode(values map[string]any) (Widgets, error) {
	var w Widgets

	scalars := make(map[string]any, len(values))
	for k, v := range values {
		if !strings.HasPrefix(k, filterPrefix) {
			scalars[k] = v

			continue
		}

		j, err := strconv.Atoi(strings.TrimPrefix(k, filterPrefix))
		if err != nil || j < 0 {
			continue // not a filter widget
		}

		var active []int
		if err := mapstructure.WeakDecode(v, &active); err != nil {
			return Widgets{}, fmt.Errorf("decoding widget %q: %w", k, err)
		}

		if w.Filters == nil {
			w.Filters = make(map[int][]int)
		}
		w.Filters[j] = active
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &w,
	})
	if err != nil {
		return Widgets{}, fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(scalars); err != nil {
		return Widgets{}, fmt.Errorf("decoding widgets: %w", err)
	}

	return w, nil
}

// Merge overlays several layers of widget values (e.g. defaults, preset, URL) and decodes the result.
//
// Later layers take precedence.
func Merge(layers ...map[string]any) (Widgets, error) {
	merged := make(map[string]any)
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}

	return Decode(merged)
}

// Map returns the widgets as a flat map. Empty widgets are omitted.
func (w Widgets) Map() map[string]any {
	out := make(map[string]any)
	_ = mapstructure.Decode(w, &out) // a struct of strings always decodes into a map

	for _, j := range w.filterIndices() {
		active := w.Filters[j]
		if active == nil {
			active = []int{}
		}
		out[filterKey(j)] = active
	}

	return out
}

// ResetColumns sets every column widget to None, as when a new data source is selected.
func (w Widgets) ResetColumns() Widgets {
	w.X = NoneValue
	w.XGroup = NoneValue
	w.Y = NoneValue
	w.YWeight = NoneValue
	w.Series = NoneValue
	w.Explode = NoneValue
	w.ExplodeGroup = NoneValue
	w.AdvCol = NoneValue
	w.AdvColBase = NoneValue
	w.ChartType = ChartDot.String()
	w.Filters = nil

	return w
}

func (w Widgets) filterIndices() []int {
	indices := make([]int, 0, len(w.Filters))
	for j := range w.Filters {
		indices = append(indices, j)
	}
	sort.Ints(indices)

	return indices
}

func filterKey(j int) string {
	return filterPrefix + strconv.Itoa(j)
}
