package table

import "slices"

// Default cardinality thresholds for the column classifier.
const (
	DefaultFilterableMax = 100
	DefaultSeriesableMax = 60
)

// Thresholds bound the number of distinct values a continuous column may have
// to be used as a filter or as a series/explode key.
type Thresholds struct {
	FilterableMax int `json:"filterable_max"`
	SeriesableMax int `json:"seriesable_max"`
}

// DefaultThresholds returns the default classifier thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FilterableMax: DefaultFilterableMax,
		SeriesableMax: DefaultSeriesableMax,
	}
}

// Classification partitions the columns of a raw table into the categories used
// by every downstream stage.
//
// Invariants: Discrete ⊆ Filterable ⊆ All and Discrete ⊆ Seriesable ⊆ All.
type Classification struct {
	All        []string            `json:"all"`
	Discrete   []string            `json:"discrete"`
	Continuous []string            `json:"continuous"`
	Filterable []string            `json:"filterable"`
	Seriesable []string            `json:"seriesable"`
	Labels     map[string][]string `json:"filter_labels"`

	discrete   map[string]struct{}
	filterable map[string]struct{}
	seriesable map[string]struct{}
	all        map[string]struct{}
}

// Classify inspects a table and partitions its column names.
//
// Filterable columns also get their sorted distinct values as labels, which is what the
// filter widgets display.
func Classify(t *Table, th Thresholds) Classification {
	if th.FilterableMax <= 0 {
		th.FilterableMax = DefaultFilterableMax
	}
	if th.SeriesableMax <= 0 {
		th.SeriesableMax = DefaultSeriesableMax
	}

	c := Classification{
		All:    t.Names(),
		Labels: make(map[string][]string),
	}

	var filterableContinuous, seriesableContinuous []string
	distinct := make(map[string][]Value, t.Width())

	for _, col := range t.Columns() {
		values := col.Distinct()
		distinct[col.Name] = values

		if col.Kind == KindString {
			c.Discrete = append(c.Discrete, col.Name)

			continue
		}

		c.Continuous = append(c.Continuous, col.Name)
		if len(values) < th.FilterableMax {
			filterableContinuous = append(filterableContinuous, col.Name)
		}
		if len(values) < th.SeriesableMax {
			seriesableContinuous = append(seriesableContinuous, col.Name)
		}
	}

	c.Filterable = append(slices.Clone(c.Discrete), filterableContinuous...)
	c.Seriesable = append(slices.Clone(c.Discrete), seriesableContinuous...)

	for _, name := range c.Filterable {
		values := slices.Clone(distinct[name])
		slices.SortFunc(values, Compare)

		labels := make([]string, len(values))
		for i, v := range values {
			labels[i] = v.String()
		}
		c.Labels[name] = labels
	}

	c.index()

	return c
}

func (c *Classification) index() {
	c.all = toSet(c.All)
	c.discrete = toSet(c.Discrete)
	c.filterable = toSet(c.Filterable)
	c.seriesable = toSet(c.Seriesable)
}

// Has reports whether the column exists.
func (c Classification) Has(name string) bool {
	return contains(c.all, c.All, name)
}

// IsDiscrete reports whether the column holds strings.
func (c Classification) IsDiscrete(name string) bool {
	return contains(c.discrete, c.Discrete, name)
}

// IsContinuous reports whether the column exists and holds numbers.
func (c Classification) IsContinuous(name string) bool {
	return c.Has(name) && !c.IsDiscrete(name)
}

// IsFilterable reports whether the column may be filtered value by value.
func (c Classification) IsFilterable(name string) bool {
	return contains(c.filterable, c.Filterable, name)
}

// IsSeriesable reports whether the column may be used as a grouping key for series or charts.
func (c Classification) IsSeriesable(name string) bool {
	return contains(c.seriesable, c.Seriesable, name)
}

// FilterLabels returns the sorted distinct labels of a filterable column.
func (c Classification) FilterLabels(name string) []string {
	return c.Labels[name]
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return set
}

// contains falls back on a linear scan when the classification was built by hand
// (e.g. decoded from JSON) and carries no index.
func contains(set map[string]struct{}, names []string, name string) bool {
	if set != nil {
		_, ok := set[name]

		return ok
	}

	return slices.Contains(names, name)
}
