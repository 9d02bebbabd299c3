package table

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNew(t *testing.T) {
	t.Run("with equal lengths", func(t *testing.T) {
		tbl, err := New(
			NewStringColumn("cat", []string{"A", "A", "B"}),
			NewNumberColumn("val", []float64{10, 20, 5}),
		)
		require.NoError(t, err)

		assert.Equal(t, 3, tbl.Len())
		assert.Equal(t, 2, tbl.Width())
		assert.Equal(t, []string{"cat", "val"}, tbl.Names())
		assert.True(t, tbl.Has("val"))
		assert.False(t, tbl.Has("other"))
	})

	t.Run("with mismatched lengths", func(t *testing.T) {
		_, err := New(
			NewStringColumn("cat", []string{"A"}),
			NewNumberColumn("val", []float64{10, 20}),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 1")
	})

	t.Run("with duplicate names", func(t *testing.T) {
		_, err := New(
			NewStringColumn("cat", []string{"A"}),
			NewStringColumn("cat", []string{"B"}),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})
}

func TestValue(t *testing.T) {
	assert.Equal(t, "2010", Number(2010).String())
	assert.Equal(t, "0.2", Number(0.2).String())
	assert.Equal(t, "A", String("A").String())

	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(String("1")))
	assert.False(t, Number(math.NaN()).Equal(Number(math.NaN())))

	assert.Negative(t, Compare(Number(2), Number(10)))
	assert.Positive(t, Compare(String("b"), String("a")))
	assert.Negative(t, Compare(Number(100), String("a")))
	assert.Zero(t, Compare(String("a"), String("a")))

	assert.True(t, math.IsNaN(String("x").Float()))
}

func TestDistinct(t *testing.T) {
	tbl := MustNew(NewStringColumn("c", []string{"C", "A", "C", "B", "A"}))

	values := tbl.Distinct("c")
	require.Len(t, values, 3)
	assert.Equal(t, "C", values[0].String())
	assert.Equal(t, "A", values[1].String())
	assert.Equal(t, "B", values[2].String())

	assert.Nil(t, tbl.Distinct("missing"))
}

func TestGroupRows(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("a", []string{"x", "y", "x", "y", "x"}),
		NewNumberColumn("b", []float64{1, 1, 2, 1, 1}),
	)

	t.Run("first appearance order, nested by key", func(t *testing.T) {
		groups := tbl.GroupRows([]string{"a", "b"})
		assert.Equal(t, [][]int{{0, 4}, {2}, {1, 3}}, groups)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		groups := tbl.GroupRows([]string{"missing", "a"})
		assert.Equal(t, [][]int{{0, 2, 4}, {1, 3}}, groups)
	})

	t.Run("no keys makes a single group", func(t *testing.T) {
		groups := tbl.GroupRows(nil)
		assert.Equal(t, [][]int{{0, 1, 2, 3, 4}}, groups)
	})

	t.Run("empty table", func(t *testing.T) {
		assert.Empty(t, Empty().GroupRows([]string{"a"}))
	})
}

func TestGroupBy(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("tech", []string{"Coal", "Solar", "Coal"}),
		NewNumberColumn("year", []float64{2030, 2010, 2010}),
		NewNumberColumn("cap", []float64{1, 2, 3}),
	)

	groups := tbl.GroupBy("tech", "year")
	require.Len(t, groups, 3)

	assert.Equal(t, []Value{String("Coal"), Number(2030)}, groups[0].Keys)
	assert.Equal(t, []int{0}, groups[0].Rows)
	assert.Equal(t, []Value{String("Coal"), Number(2010)}, groups[1].Keys)
	assert.Equal(t, []int{2}, groups[1].Rows)
	assert.Equal(t, []Value{String("Solar"), Number(2010)}, groups[2].Keys)
	assert.Equal(t, []int{1}, groups[2].Rows)

	t.Run("no keys", func(t *testing.T) {
		all := tbl.GroupBy()
		require.Len(t, all, 1)
		assert.Empty(t, all[0].Keys)
		assert.Equal(t, []int{0, 1, 2}, all[0].Rows)
	})

	t.Run("no rows", func(t *testing.T) {
		none := tbl.Filter(func(int) bool { return false })
		assert.Empty(t, none.GroupBy("tech"))
	})
}

func TestSortStable(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("s", []string{"b", "a", "b", "a"}),
		NewNumberColumn("n", []float64{10, 2, 1, 2}),
		NewStringColumn("id", []string{"r0", "r1", "r2", "r3"}),
	)

	sorted := tbl.SortStable([]string{"s", "n"})

	ids := sorted.Records()[1:]
	got := make([]string, 0, len(ids))
	for _, r := range ids {
		got = append(got, r[2])
	}

	// r1 and r3 tie: their relative order is kept
	assert.Equal(t, []string{"r1", "r3", "r2", "r0"}, got)

	t.Run("with a leading key already in order", func(t *testing.T) {
		tbl := MustNew(
			NewStringColumn("s", []string{"a", "a", "b"}),
			NewNumberColumn("n", []float64{2, 1, 1}),
		)

		sorted := tbl.SortStable([]string{"s", "n"})
		assert.Equal(t, [][]string{{"s", "n"}, {"a", "1"}, {"a", "2"}, {"b", "1"}}, sorted.Records())
	})

	t.Run("with no rows", func(t *testing.T) {
		empty := tbl.Filter(func(int) bool { return false })
		sorted := empty.SortStable([]string{"s"})
		assert.Equal(t, 0, sorted.Len())
		assert.Equal(t, tbl.Names(), sorted.Names())
	})
}

func TestSelectProjectWith(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("a", []string{"x", "y", "z"}),
		NewNumberColumn("b", []float64{1, 2, 3}),
	)

	sel := tbl.Select([]int{2, 0})
	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, "z", sel.Value("a", 0).String())

	proj := tbl.Project([]string{"b", "a"})
	assert.Equal(t, []string{"b", "a"}, proj.Names())
	assert.Equal(t, 3, proj.Len())

	replaced, err := tbl.With(NewNumberColumn("b", []float64{4, 5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, replaced.Value("b", 0).Float(), 1e-12)
	// the original table is untouched
	assert.InDelta(t, 1.0, tbl.Value("b", 0).Float(), 1e-12)

	_, err = tbl.With(NewNumberColumn("c", []float64{1}))
	require.Error(t, err)

	filtered := tbl.Filter(func(row int) bool { return row != 1 })
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, "z", filtered.Value("a", 1).String())
	assert.Equal(t, 0, Empty().Filter(func(int) bool { return true }).Len())
}

func TestClone(t *testing.T) {
	tbl := MustNew(NewNumberColumn("b", []float64{1, 2, 3}))
	clone := tbl.Clone()

	c, _ := clone.Column("b")
	c.Numbers[0] = 42

	assert.InDelta(t, 1.0, tbl.Value("b", 0).Float(), 1e-12)
}

func TestMarshalJSON(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("a", []string{"x", "y"}),
		NewNumberColumn("b", []float64{1.5, math.NaN()}),
	)

	buf, err := json.Marshal(tbl)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"columns":[{"name":"a","kind":"string"},{"name":"b","kind":"number"}],"rows":[["x",1.5],["y",null]]}`,
		string(buf),
	)
}
