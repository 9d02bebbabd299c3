package table

import (
	"fmt"

	"github.com/aclements/go-gg/generic/slice"
	ggtable "github.com/aclements/go-gg/table"
)

// rowColumn tracks the row index of the source table through grouping, sorting and filtering.
const rowColumn = "\x00row"

// Group is the set of rows sharing the same values of some key columns.
type Group struct {
	// Keys holds the value of each key column, in key order.
	Keys []Value
	Rows []int
}

// frame exposes the table as a go-gg table, with an extra column of row indices.
func (t *Table) frame() *ggtable.Table {
	var b ggtable.Builder
	for _, c := range t.columns {
		if c.Kind == KindNumber {
			b.Add(c.Name, c.Numbers)

			continue
		}
		b.Add(c.Name, c.Strings)
	}

	rows := make([]int, t.rows)
	for i := range rows {
		rows[i] = i
	}
	b.Add(rowColumn, rows)

	return b.Done()
}

func rowsOf(f *ggtable.Table) []int {
	if f == nil || f.Len() == 0 {
		return []int{}
	}

	return f.MustColumn(rowColumn).([]int)
}

func (t *Table) known(keys []string) []string {
	cols := make([]string, 0, len(keys))
	for _, k := range keys {
		if t.Has(k) {
			cols = append(cols, k)
		}
	}

	return cols
}

// GroupBy partitions rows by the values of the key columns. Unknown keys are ignored.
//
// Groups are ordered by first appearance of the first key, then by first appearance of the
// next key within each of these, and so on. Rows within a group keep table order.
// With no keys, all rows form a single group. NaN keys never match each other.
func (t *Table) GroupBy(keys ...string) []Group {
	if t.IsEmpty() {
		return nil
	}

	cols := t.known(keys)
	grouping := ggtable.GroupBy(t.frame(), cols...)
	gids := grouping.Tables()
	groups := make([]Group, 0, len(gids))

	for _, gid := range gids {
		labels := make([]Value, len(cols))
		for i, p := len(cols)-1, gid; i >= 0; i, p = i-1, p.Parent() {
			labels[i] = valueOf(p.Label())
		}

		groups = append(groups, Group{Keys: labels, Rows: rowsOf(grouping.Table(gid))})
	}

	return groups
}

// GroupRows is like [Table.GroupBy], but only returns the row indices of each group.
func (t *Table) GroupRows(keys []string) [][]int {
	groups := t.GroupBy(keys...)
	rows := make([][]int, len(groups))
	for i, g := range groups {
		rows[i] = g.Rows
	}

	return rows
}

// SortStable returns a new table with rows sorted in ascending order of the key columns.
//
// Ties keep their original relative order. Unknown keys are ignored.
func (t *Table) SortStable(keys []string) *Table {
	if t.IsEmpty() {
		return t
	}

	cols := t.known(keys)
	f := t.frame()

	// one stable pass per key, least significant first
	for i := len(cols) - 1; i >= 0; i-- {
		f = ggtable.Flatten(ggtable.SortBy(f, cols[i]))
	}

	return t.Select(rowsOf(f))
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	if t.Width() == 0 {
		return t
	}

	f := ggtable.Flatten(ggtable.Filter(t.frame(), keep, rowColumn))

	return t.Select(rowsOf(f))
}

// Select returns a new table with only the given rows, in the given order.
func (t *Table) Select(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		out := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == KindNumber {
			out.Numbers = slice.Select(c.Numbers, rows).([]float64)
		} else {
			out.Strings = slice.Select(c.Strings, rows).([]string)
		}
		cols[i] = out
	}

	return &Table{columns: cols, index: cloneIndex(t.index), rows: len(rows)}
}

func valueOf(label any) Value {
	switch v := label.(type) {
	case float64:
		return Number(v)
	case string:
		return String(v)
	default:
		return String(fmt.Sprint(v))
	}
}
