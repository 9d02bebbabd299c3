package pipeline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestRunIncompleteView(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("cat", []string{"A", "A", "B"}),
		table.NewNumberColumn("val", []float64{10, 20, 5}),
	)

	for _, w := range []view.Widgets{
		{},
		{X: "cat"},
		{Y: "val"},
		{X: "cat", Y: view.NoneValue},
	} {
		derived := mustRun(t, raw, w)
		assert.True(t, derived.IsEmpty())
		assert.Zero(t, derived.Width())
	}
}

func TestAggregate(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("cat", []string{"A", "A", "B"}),
		table.NewNumberColumn("val", []float64{10, 20, 5}),
		table.NewNumberColumn("w", []float64{1, 3, 2}),
	)

	tests := []struct {
		agg  string
		want map[string]float64
	}{
		{"Sum", map[string]float64{"A": 30, "B": 5}},
		{"Ave", map[string]float64{"A": 15, "B": 5}},
		{"Weighted Ave", map[string]float64{"A": 17.5, "B": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.agg, func(t *testing.T) {
			derived := mustRun(t, raw, view.Widgets{X: "cat", Y: "val", YAgg: tt.agg, YWeight: "w"})

			assert.Equal(t, []string{"cat", "val"}, derived.Names())
			assertYByX(t, derived, "cat", "val", tt.want)
		})
	}

	t.Run("without aggregation", func(t *testing.T) {
		derived := mustRun(t, raw, view.Widgets{X: "cat", Y: "val", YAgg: view.NoneValue})

		assert.Equal(t, 3, derived.Len())
		assert.Equal(t, []string{"cat", "w", "val"}, derived.Names())
	})

	t.Run("weighted average without weight is skipped", func(t *testing.T) {
		derived := mustRun(t, raw, view.Widgets{X: "cat", Y: "val", YAgg: "Weighted Ave"})

		assert.Equal(t, 3, derived.Len(), "expected y to stay unaggregated")
	})

	t.Run("weighted average with a string weight is skipped", func(t *testing.T) {
		derived := mustRun(t, raw, view.Widgets{X: "val", Y: "w", YAgg: "Weighted Ave", YWeight: "cat"})

		assert.Equal(t, 3, derived.Len())
	})

	t.Run("string y is never aggregated", func(t *testing.T) {
		derived := mustRun(t, raw, view.Widgets{X: "val", Y: "cat", YAgg: "Sum"})

		assert.Equal(t, 3, derived.Len())
		assert.Equal(t, "cat", derived.Names()[derived.Width()-1])
	})
}

func TestWeightedAverageZeroWeight(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("cat", []string{"A", "A"}),
		table.NewNumberColumn("val", []float64{10, 20}),
		table.NewNumberColumn("w", []float64{0, 0}),
	)

	derived := mustRun(t, raw, view.Widgets{X: "cat", Y: "val", YAgg: "Weighted Ave", YWeight: "w"})

	require.Equal(t, 1, derived.Len())
	got := derived.Value("val", 0).Float()
	assert.False(t, math.IsNaN(got))
	assert.Zero(t, got)
}

func TestGroupingPrecedence(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("region", []string{"W", "E", "W", "E", "W", "E"}),
		table.NewStringColumn("tech", []string{"Wind", "Coal", "Coal", "Wind", "Wind", "Coal"}),
		table.NewNumberColumn("year", []float64{2020, 2010, 2010, 2020, 2020, 2010}),
		table.NewStringColumn("case", []string{"ref", "ref", "ref", "ref", "ref", "ref"}),
		table.NewNumberColumn("gen", []float64{1, 2, 3, 4, 5, 6}),
	)

	derived := mustRun(t, raw, view.Widgets{
		X:            "year",
		Y:            "gen",
		YAgg:         "Sum",
		Series:       "tech",
		Explode:      "region",
		ExplodeGroup: "case",
	})

	assert.Equal(t, []string{"case", "region", "tech", "year", "gen"}, derived.Names())
	assert.Equal(t, [][]string{
		{"case", "region", "tech", "year", "gen"},
		{"ref", "E", "Coal", "2010", "8"},
		{"ref", "E", "Wind", "2020", "4"},
		{"ref", "W", "Coal", "2010", "3"},
		{"ref", "W", "Wind", "2020", "6"},
	}, derived.Records())
}

func TestCompare(t *testing.T) {
	raw := table.MustNew(
		table.NewNumberColumn("year", []float64{2010, 2020, 2030}),
		table.NewNumberColumn("val", []float64{5, 8, 12}),
	)

	tests := []struct {
		name string
		op   string
		base string
		opts []Option
		want map[string]float64
	}{
		{
			name: "difference with literal base",
			op:   "Difference", base: "2010",
			want: map[string]float64{"2020": 3, "2030": 7},
		},
		{
			name: "ratio with literal base",
			op:   "Ratio", base: "2010",
			want: map[string]float64{"2020": 1.6, "2030": 2.4},
		},
		{
			name: "difference with base moved to front",
			op:   "Difference", base: "2020",
			want: map[string]float64{"2010": -3, "2030": 4},
		},
		{
			name: "ratio with total",
			op:   "Ratio", base: view.TotalValue,
			want: map[string]float64{"2010": 0.2, "2020": 0.32, "2030": 0.48},
		},
		{
			name: "difference with total",
			op:   "Difference", base: view.TotalValue,
			want: map[string]float64{"2010": -20, "2020": -17, "2030": -13},
		},
		{
			name: "difference with consecutive",
			op:   "Difference", base: view.ConsecutiveValue,
			want: map[string]float64{"2020": 3, "2030": 4},
		},
		{
			name: "ratio with consecutive computes a difference",
			op:   "Ratio", base: view.ConsecutiveValue,
			want: map[string]float64{"2020": 3, "2030": 4},
		},
		{
			name: "ratio with consecutive computes a ratio when enabled",
			op:   "Ratio", base: view.ConsecutiveValue,
			opts: []Option{WithConsecutiveRatio(true)},
			want: map[string]float64{"2020": 1.6, "2030": 1.5},
		},
		{
			name: "literal base not found skips the comparison",
			op:   "Difference", base: "1999",
			want: map[string]float64{"2010": 5, "2020": 8, "2030": 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived := mustRun(t, raw, view.Widgets{
				X:          "year",
				Y:          "val",
				YAgg:       "Sum",
				AdvOp:      tt.op,
				AdvCol:     "year",
				AdvColBase: tt.base,
			}, tt.opts...)

			assertYByX(t, derived, "year", "val", tt.want)
		})
	}

	t.Run("without aggregation there is no comparison", func(t *testing.T) {
		derived := mustRun(t, raw, view.Widgets{
			X: "year", Y: "val", YAgg: view.NoneValue,
			AdvOp: "Difference", AdvCol: "year", AdvColBase: "2010",
		})

		assert.Equal(t, 3, derived.Len())
	})
}

func TestCompareWithinGroups(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("tech", []string{"Coal", "Wind", "Coal", "Wind", "Solar"}),
		table.NewNumberColumn("year", []float64{2030, 2030, 2010, 2010, 2030}),
		table.NewNumberColumn("cap", []float64{50, 30, 100, 10, 7}),
	)

	for _, tt := range []struct {
		op   string
		want [][]string
	}{
		{
			op: "Difference",
			want: [][]string{
				{"year", "tech", "cap"},
				{"2030", "Coal", "-50"},
				{"2030", "Solar", "0"},
				{"2030", "Wind", "20"},
			},
		},
		{
			op: "Ratio",
			want: [][]string{
				{"year", "tech", "cap"},
				{"2030", "Coal", "0.5"},
				{"2030", "Solar", "1"},
				{"2030", "Wind", "3"},
			},
		},
	} {
		t.Run(tt.op, func(t *testing.T) {
			derived := mustRun(t, raw, view.Widgets{
				X:          "tech",
				Y:          "cap",
				YAgg:       "Sum",
				Series:     "year",
				AdvOp:      tt.op,
				AdvCol:     "year",
				AdvColBase: "2010",
			})

			// Solar has no 2010 row: it compares to its own first row, base rows are dropped
			assert.Equal(t, tt.want, derived.Records())
		})
	}
}

func TestCompareDropsUndefinedRatios(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("tech", []string{"Coal", "Coal", "Wind", "Wind"}),
		table.NewStringColumn("case", []string{"base", "alt", "base", "alt"}),
		table.NewNumberColumn("cap", []float64{0, 5, 2, 3}),
	)

	derived := mustRun(t, raw, view.Widgets{
		X:          "tech",
		Y:          "cap",
		YAgg:       "Sum",
		AdvOp:      "Ratio",
		AdvCol:     "case",
		AdvColBase: "base",
	})

	// the case column is not a group key: the comparison is skipped once aggregated away
	assert.Equal(t, 2, derived.Len())

	derived = mustRun(t, raw, view.Widgets{
		X:          "tech",
		Y:          "cap",
		YAgg:       "Sum",
		Series:     "case",
		AdvOp:      "Ratio",
		AdvCol:     "case",
		AdvColBase: "base",
	})

	// Coal divides by zero: dropped
	assert.Equal(t, [][]string{
		{"case", "tech", "cap"},
		{"alt", "Wind", "1.5"},
	}, derived.Records())
}

func TestFilter(t *testing.T) {
	raw := fixtureTable()
	cls := table.Classify(raw, table.DefaultThresholds())
	require.Equal(t, []string{"region", "tech", "year", "gen"}, cls.Filterable)

	t.Run("only active values are kept", func(t *testing.T) {
		w := view.Widgets{
			X: "year", Y: "gen",
			Filters: map[int][]int{
				0: {1},    // region: W
				2: {0, 2}, // year: 2010, 2030
			},
		}
		derived := mustRunWith(t, raw, cls, w)

		require.Equal(t, 2, derived.Len())
		for i := range derived.Len() {
			assert.Equal(t, "W", derived.Value("region", i).String())
			assert.NotEqual(t, "2020", derived.Value("year", i).String())
		}
	})

	t.Run("deactivating all values yields no rows", func(t *testing.T) {
		for j := range cls.Filterable {
			derived := mustRunWith(t, raw, cls, view.Widgets{
				X: "year", Y: "gen", YAgg: "Sum",
				Filters: map[int][]int{j: {}},
			})
			assert.Zero(t, derived.Len(), "filter_%d", j)
			assert.Equal(t, "gen", derived.Names()[derived.Width()-1])
		}
	})
}

func TestScale(t *testing.T) {
	raw := table.MustNew(
		table.NewStringColumn("cat", []string{"A", "A", "B"}),
		table.NewNumberColumn("val", []float64{10, 20, 5}),
	)

	derived := mustRun(t, raw, view.Widgets{X: "cat", Y: "val", YAgg: "Sum", YScale: "0.1", XScale: "3"})
	assertYByX(t, derived, "cat", "val", map[string]float64{"A": 3, "B": 0.5})

	t.Run("raw table is untouched", func(t *testing.T) {
		assert.InDelta(t, 10.0, raw.Value("val", 0).Float(), 1e-12)
	})

	t.Run("scale applies before averaging", func(t *testing.T) {
		derived := mustRun(t, raw, view.Widgets{X: "cat", Y: "val", YAgg: "Ave", YScale: "2"})
		assertYByX(t, derived, "cat", "val", map[string]float64{"A": 30, "B": 10})
	})
}

func TestIdempotence(t *testing.T) {
	raw := fixtureTable()
	cls := table.Classify(raw, table.DefaultThresholds())

	configs := []view.Widgets{
		{X: "year", Y: "gen", YAgg: "Sum", Series: "tech", Explode: "region"},
		{X: "tech", Y: "gen", YAgg: "Ave", Series: "year", AdvOp: "Ratio", AdvCol: "year", AdvColBase: view.TotalValue},
		{X: "year", Y: "gen", YAgg: view.NoneValue, Filters: map[int][]int{1: {0, 1}}},
	}

	for _, w := range configs {
		first := mustRunWith(t, raw, cls, w)
		second := mustRunWith(t, raw, cls, w)

		b1, err := json.Marshal(first)
		require.NoError(t, err)
		b2, err := json.Marshal(second)
		require.NoError(t, err)

		assert.Equal(t, string(b1), string(b2))
	}
}

func TestReorderInvariant(t *testing.T) {
	raw := fixtureTable()
	cls := table.Classify(raw, table.DefaultThresholds())

	configs := []view.Widgets{
		{X: "year", Y: "gen"},
		{X: "year", Y: "gen", Series: "tech"},
		{X: "tech", Y: "gen", XGroup: "region", YAgg: view.NoneValue},
		{X: "gen", Y: "year", Explode: "tech"},
		{X: "year", Y: "gen", YAgg: "Sum", Explode: "region", Series: "tech"},
	}

	for _, w := range configs {
		v, err := view.Build(w, cls)
		require.NoError(t, err)

		derived, err := New(cls).Run(raw, v)
		require.NoError(t, err)

		names := derived.Names()
		require.NotEmpty(t, names)
		assert.Equal(t, v.Y.Name(), names[len(names)-1])
		assert.Equal(t, v.GroupKeys(), names[:len(v.GroupKeys())])
	}
}

// helpers

func fixtureTable() *table.Table {
	return table.MustNew(
		table.NewStringColumn("region", []string{"E", "W", "E", "W", "E", "W"}),
		table.NewStringColumn("tech", []string{"Coal", "Coal", "Wind", "Wind", "Solar", "Solar"}),
		table.NewNumberColumn("year", []float64{2010, 2030, 2020, 2010, 2030, 2020}),
		table.NewNumberColumn("gen", []float64{1, 2, 3, 4, 5, 6}),
	)
}

func mustRun(t *testing.T, raw *table.Table, w view.Widgets, opts ...Option) *table.Table {
	t.Helper()

	return mustRunWith(t, raw, table.Classify(raw, table.DefaultThresholds()), w, opts...)
}

func mustRunWith(t *testing.T, raw *table.Table, cls table.Classification, w view.Widgets, opts ...Option) *table.Table {
	t.Helper()

	v, err := view.Build(w, cls)
	require.NoError(t, err)

	derived, err := New(cls, opts...).Run(raw, v)
	require.NoError(t, err)

	return derived
}

func assertYByX(t *testing.T, derived *table.Table, x, y string, want map[string]float64) {
	t.Helper()

	got := make(map[string]float64, derived.Len())
	for i := range derived.Len() {
		got[derived.Value(x, i).String()] = derived.Value(y, i).Float()
	}

	require.Len(t, got, len(want))
	for k, v := range want {
		require.Contains(t, got, k)
		assert.InDelta(t, v, got[k], 1e-9, "at %s=%s", x, k)
	}
}
