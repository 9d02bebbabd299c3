package organizer

import (
	"slices"

	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

// Palette is the default sequence of series colors.
var Palette = []string{
	"#5e4fa2", "#3288bd", "#66c2a5", "#abdda4", "#e6f598",
	"#fee08b", "#fdae61", "#f46d43", "#d53e4f", "#9e0142",
}

// NeutralColor is the color of charts without series.
const NeutralColor = "#31AADE"

// Part is the subset of a chart's rows that belongs to one series.
type Part struct {
	Label string
	Color string
	Data  *table.Table
}

// Partition splits the rows of a chart into series.
//
// Series values are enumerated over the whole derived table, so that a series value gets the same
// color in every chart. Within a chart, series follow their order of first appearance.
// Without a series column, the chart holds a single unlabeled series with the neutral color.
func (o *Organizer) Partition(subset, derived *table.Table, v *view.View) []Part {
	if !v.Series.IsSet() || !subset.Has(v.Series.Name()) {
		return []Part{{Color: o.neutral, Data: subset}}
	}

	column := v.Series.Name()
	colors := seriesColors(derived.Distinct(column), o.palette)
	partitions := subset.GroupBy(column)
	parts := make([]Part, 0, len(partitions))

	for _, p := range partitions {
		value := p.Keys[0]
		parts = append(parts, Part{
			Label: value.String(),
			Color: colors[value],
			Data:  subset.Select(p.Rows),
		})
	}

	return parts
}

// Legend lists the series values of the derived table with their color, in reverse order.
//
// It is empty when there is no series column.
func (o *Organizer) Legend(derived *table.Table, v *view.View) []model.LegendEntry {
	if !v.Series.IsSet() || !derived.Has(v.Series.Name()) {
		return nil
	}

	values := derived.Distinct(v.Series.Name())
	entries := make([]model.LegendEntry, 0, len(values))
	for i, value := range values {
		entries = append(entries, model.LegendEntry{
			Label: value.String(),
			Color: o.palette[i%len(o.palette)],
		})
	}
	slices.Reverse(entries)

	return entries
}

func seriesColors(values []table.Value, palette []string) map[table.Value]string {
	colors := make(map[table.Value]string, len(values))
	for i, value := range values {
		colors[value] = palette[i%len(palette)]
	}

	return colors
}
