package view

import (
	"slices"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// columnWidgets lists the column widgets that may not share a column.
var columnWidgets = []string{"x", "y", "x_group", "series", "explode", "explode_group"}

// ColumnOptions returns the options offered by a column widget: None, then the eligible columns
// not already selected by another column widget.
//
// x, y, y_weight and adv_col accept any column. x_group, series, explode and explode_group only
// accept seriesable columns.
func ColumnOptions(w Widgets, cls table.Classification, key string) []string {
	var candidates []string
	switch key {
	case "x_group", "series", "explode", "explode_group":
		candidates = cls.Seriesable
	default:
		candidates = cls.All
	}

	taken := make(map[string]struct{})
	if slices.Contains(columnWidgets, key) {
		for _, other := range columnWidgets {
			if other == key {
				continue
			}
			if name := w.column(other); !isNone(name) {
				taken[name] = struct{}{}
			}
		}
	}

	options := make([]string, 0, len(candidates)+1)
	options = append(options, NoneValue)

	for _, name := range candidates {
		if _, ok := taken[name]; ok {
			continue
		}
		options = append(options, name)
	}

	return options
}

// BaseOptions returns the options of the adv_col_base widget: None, Consecutive, Total, then the
// sorted distinct values of the comparison column.
func BaseOptions(t *table.Table, advCol string) []string {
	options := []string{NoneValue, ConsecutiveValue, TotalValue}
	if isNone(advCol) || !t.Has(advCol) {
		return options
	}

	values := t.Distinct(advCol)
	slices.SortStableFunc(values, table.Compare)

	for _, v := range values {
		options = append(options, v.String())
	}

	return options
}

func (w Widgets) column(key string) string {
	switch key {
	case "x":
		return w.X
	case "y":
		return w.Y
	case "x_group":
		return w.XGroup
	case "series":
		return w.Series
	case "explode":
		return w.Explode
	case "explode_group":
		return w.ExplodeGroup
	case "y_weight":
		return w.YWeight
	case "adv_col":
		return w.AdvCol
	default:
		return ""
	}
}
