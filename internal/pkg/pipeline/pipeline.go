// Package pipeline derives the table to chart from a raw table and a view.
//
// Stages run in a fixed order: filter, scale, aggregate, compare, sort and reorder columns.
package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/aclements/go-moremath/stats"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

// rankColumn temporarily holds the comparison order of snapshots.
const rankColumn = "\x00rank"

// Pipeline transforms raw tables into derived tables.
//
// A [Pipeline] is stateless: running it twice on the same inputs yields the same table.
type Pipeline struct {
	options

	cls table.Classification
	l   *slog.Logger
}

// New builds a [Pipeline] for tables with the given classification.
func New(cls table.Classification, opts ...Option) *Pipeline {
	return &Pipeline{
		options: optionsWithDefaults(opts),
		cls:     cls,
		l:       slog.Default().With(slog.String("module", "pipeline")),
	}
}

// Run the pipeline over a raw table.
//
// The raw table is not modified. When the view does not select both axes, the result is an empty table.
func (p *Pipeline) Run(raw *table.Table, v *view.View) (*table.Table, error) {
	if !v.IsComplete() || !raw.Has(v.X.Name()) || !raw.Has(v.Y.Name()) {
		p.l.Debug("incomplete view: no data")

		return table.Empty(), nil
	}

	t := p.filter(raw, v)

	t, err := p.scale(t, v)
	if err != nil {
		return nil, fmt.Errorf("scaling: %w", err)
	}

	t, err = p.aggregate(t, v)
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}

	t, err = p.compare(t, v)
	if err != nil {
		return nil, fmt.Errorf("comparing: %w", err)
	}

	t = t.SortStable(v.GroupKeys())
	t = reorder(t, v)

	p.l.Debug("derived table", slog.Int("rows", t.Len()), slog.Any("columns", t.Names()))

	return t, nil
}

// filter keeps the rows whose values are active in every configured filter.
func (p *Pipeline) filter(t *table.Table, v *view.View) *table.Table {
	type check struct {
		col    *table.Column
		filter view.Filter
	}

	checks := make([]check, 0, len(v.Filters))
	for _, name := range p.cls.Filterable {
		f, ok := v.Filter(name)
		if !ok {
			continue
		}

		col, ok := t.Column(name)
		if !ok {
			continue
		}

		checks = append(checks, check{col: col, filter: f})
	}

	if len(checks) == 0 {
		return t
	}

	return t.Filter(func(row int) bool {
		for _, c := range checks {
			if !c.filter.Contains(c.col.Value(row)) {
				return false
			}
		}

		return true
	})
}

// scale multiplies the continuous axes by their scale factor.
func (p *Pipeline) scale(t *table.Table, v *view.View) (*table.Table, error) {
	axes := []struct {
		col    view.Column
		factor *float64
	}{
		{v.X, v.Display.XScale},
		{v.Y, v.Display.YScale},
	}

	for _, axis := range axes {
		if !axis.col.IsContinuous() || axis.factor == nil {
			continue
		}

		col, ok := t.Column(axis.col.Name())
		if !ok || col.Kind != table.KindNumber {
			continue
		}

		scaled := make([]float64, len(col.Numbers))
		for i, n := range col.Numbers {
			scaled[i] = n * *axis.factor
		}

		var err error
		t, err = t.With(table.NewNumberColumn(col.Name, scaled))
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

// aggregate reduces y over the groups defined by [view.View.GroupKeys].
//
// Only the group keys and y are kept.
func (p *Pipeline) aggregate(t *table.Table, v *view.View) (*table.Table, error) {
	if v.Agg == view.AggNone || !v.Y.IsContinuous() {
		return t, nil
	}

	y, ok := t.Column(v.Y.Name())
	if !ok || y.Kind != table.KindNumber {
		return t, nil
	}

	var weights []float64
	if v.Agg == view.AggWeightedAve {
		w, ok := t.Column(v.Weight.Name())
		if !v.Weight.IsContinuous() || !ok || w.Kind != table.KindNumber {
			p.l.Warn("weighted average requires a numeric weight column: aggregation skipped",
				slog.String("y_weight", v.Weight.String()),
			)

			return t, nil
		}
		weights = w.Numbers
	}

	keys := v.GroupKeys()
	groups := t.GroupBy(keys...)
	firsts := make([]int, len(groups))
	reduced := make([]float64, len(groups))

	for g, group := range groups {
		rows := group.Rows
		firsts[g] = rows[0]

		sample := stats.Sample{Xs: make([]float64, len(rows))}
		for i, row := range rows {
			sample.Xs[i] = y.Numbers[row]
		}

		switch v.Agg {
		case view.AggSum:
			reduced[g] = sample.Sum()
		case view.AggAve:
			reduced[g] = stats.Mean(sample.Xs)
		case view.AggWeightedAve:
			sample.Weights = make([]float64, len(rows))
			for i, row := range rows {
				sample.Weights[i] = weights[row]
			}
			reduced[g] = weightedAverage(sample)
		case view.AggNone:
		}
	}

	return t.Select(firsts).Project(keys).With(table.NewNumberColumn(y.Name, reduced))
}

// weightedAverage is sum(x*w)/sum(w), or 0 when the weights sum up to 0.
func weightedAverage(sample stats.Sample) float64 {
	total := sample.Weight()
	if total == 0 {
		return 0
	}

	return sample.Sum() / total
}

// compare replaces y by its difference or ratio to a base, within groups of rows sharing all
// columns but adv_col and y.
func (p *Pipeline) compare(t *table.Table, v *view.View) (*table.Table, error) {
	if v.Op == view.OpNone || !v.AdvCol.IsSet() || !v.Base.IsSet() || v.Agg == view.AggNone || !v.Y.IsContinuous() {
		return t, nil
	}

	advName := v.AdvCol.Name()
	adv, ok := t.Column(advName)
	if !ok {
		p.l.Warn("comparison column is not a group key: comparison skipped", slog.String("adv_col", advName))

		return t, nil
	}

	y, ok := t.Column(v.Y.Name())
	if !ok || y.Kind != table.KindNumber {
		return t, nil
	}

	snapshots := adv.Distinct()
	if v.Base.Kind == view.BaseLiteral {
		pos := slices.IndexFunc(snapshots, v.Base.Value.Equal)
		if pos < 0 {
			p.l.Warn("base value not found: comparison skipped",
				slog.String("adv_col", advName),
				slog.String("adv_col_base", v.Base.String()),
			)

			return t, nil
		}

		base := snapshots[pos]
		snapshots = append([]table.Value{base}, slices.Delete(snapshots, pos, pos+1)...)
	}

	rank := make(map[table.Value]int, len(snapshots))
	for i, s := range snapshots {
		rank[s] = i
	}

	ranks := make([]float64, t.Len())
	for i := range ranks {
		ranks[i] = float64(rank[adv.Value(i)])
	}

	ranked, err := t.With(table.NewNumberColumn(rankColumn, ranks))
	if err != nil {
		return nil, err
	}
	t = ranked.SortStable([]string{rankColumn}).Project(t.Names())
	adv, _ = t.Column(advName)
	y, _ = t.Column(v.Y.Name())

	others := make([]string, 0, t.Width())
	for _, name := range t.Names() {
		if name != advName && name != y.Name {
			others = append(others, name)
		}
	}

	if v.Op == view.OpRatio && v.Base.Kind == view.BaseConsecutive && !p.consecutiveRatio {
		p.l.Warn("ratio to consecutive values computed as a difference", slog.String("adv_col", advName))
	}

	compared := make([]float64, t.Len())
	for _, rows := range t.GroupRows(others) {
		p.compareGroup(v, adv, y.Numbers, rows, compared)
	}

	t, err = t.With(table.NewNumberColumn(y.Name, compared))
	if err != nil {
		return nil, err
	}

	return t.Filter(func(row int) bool {
		if v.Base.Kind == view.BaseLiteral && adv.Value(row).Equal(v.Base.Value) {
			return false
		}

		// NaN and ±Inf both go: unlike a pandas notnull mask, infinite ratios are not kept
		n := compared[row]

		return !math.IsNaN(n) && !math.IsInf(n, 0)
	}), nil
}

func (p *Pipeline) compareGroup(v *view.View, adv *table.Column, ys []float64, rows []int, out []float64) {
	isRatio := v.Op == view.OpRatio

	switch v.Base.Kind {
	case view.BaseConsecutive:
		ratio := isRatio && p.consecutiveRatio
		for i, row := range rows {
			if i == 0 {
				out[row] = math.NaN()

				continue
			}

			prev := ys[rows[i-1]]
			if ratio {
				out[row] = ys[row] / prev
			} else {
				out[row] = ys[row] - prev
			}
		}

	case view.BaseTotal:
		sample := stats.Sample{Xs: make([]float64, len(rows))}
		for i, row := range rows {
			sample.Xs[i] = ys[row]
		}
		total := sample.Sum()

		for _, row := range rows {
			if isRatio {
				out[row] = ys[row] / total
			} else {
				out[row] = ys[row] - total
			}
		}

	case view.BaseLiteral:
		// rows are sorted with the base first: a group without a base row compares to its first row
		base := ys[rows[0]]
		for _, row := range rows {
			if isRatio {
				out[row] = ys[row] / base
			} else {
				out[row] = ys[row] - base
			}
		}

	case view.BaseNone:
	}
}

// reorder puts the sort keys first, then the other columns, then y.
func reorder(t *table.Table, v *view.View) *table.Table {
	keys := v.GroupKeys()
	names := make([]string, 0, t.Width())

	for _, k := range keys {
		if t.Has(k) {
			names = append(names, k)
		}
	}

	for _, name := range t.Names() {
		if name == v.Y.Name() || slices.Contains(keys, name) {
			continue
		}
		names = append(names, name)
	}

	names = append(names, v.Y.Name())

	return t.Project(names)
}
