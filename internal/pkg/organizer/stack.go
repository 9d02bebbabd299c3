package organizer

import (
	"slices"

	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// Stack piles up series on top of each other, in the order of the series.
//
// The input points hold unstacked values. Every output series has a positive half (in Points) and a
// negative half (in Negative), each with one point per distinct x value of all series, in ascending order.
// Positive values pile up above 0 and negative values below 0. An x value missing from a series counts as 0.
func Stack(series []model.Series) []model.Series {
	xs, labels := fullRange(series)
	pos := make([]float64, len(xs))
	neg := make([]float64, len(xs))
	stacked := make([]model.Series, 0, len(series))

	for _, s := range series {
		values := firstValues(s.Points)
		positive := make([]model.Point, len(xs))
		negative := make([]model.Point, len(xs))

		for i, x := range xs {
			y := values[x]
			var up, down float64
			switch {
			case y > 0:
				up = y
			case y < 0:
				down = y
			}

			positive[i] = model.Point{X: x, Label: labels[i], Y: pos[i] + up, Base: pos[i]}
			negative[i] = model.Point{X: x, Label: labels[i], Y: neg[i] + down, Base: neg[i]}
			pos[i] += up
			neg[i] += down
		}

		stacked = append(stacked, model.Series{
			Label:    s.Label,
			Color:    s.Color,
			Points:   positive,
			Negative: negative,
		})
	}

	return stacked
}

// fullRange returns the sorted distinct x values of all series, with their labels.
func fullRange(series []model.Series) ([]table.Value, []string) {
	seen := make(map[table.Value]string)
	var xs []table.Value

	for _, s := range series {
		for _, p := range s.Points {
			if _, ok := seen[p.X]; ok {
				continue
			}
			seen[p.X] = p.Label
			xs = append(xs, p.X)
		}
	}
	slices.SortFunc(xs, table.Compare)

	labels := make([]string, len(xs))
	for i, x := range xs {
		labels[i] = seen[x]
	}

	return xs, labels
}

// firstValues maps each x to the first y reported for it.
func firstValues(points []model.Point) map[table.Value]float64 {
	values := make(map[table.Value]float64, len(points))
	for _, p := range points {
		if _, ok := values[p.X]; ok {
			continue
		}
		values[p.X] = p.Y
	}

	return values
}
