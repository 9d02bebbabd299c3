// Package table holds the in-memory tabular dataset used throughout the pivot pipeline.
//
// A [Table] is an ordered collection of named, typed columns of equal length.
// Tables are treated as immutable values: every transformation returns a new [Table].
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Column is a named sequence of values of a single [Kind].
//
// Only the slice that matches the kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Numbers []float64
	Strings []string
}

// NewNumberColumn builds a numeric column.
func NewNumberColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindNumber, Numbers: values}
}

// NewStringColumn builds a string column.
func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindString, Strings: values}
}

// NewColumn builds a column of the given kind from values. Values of the other kind are
// converted: strings for a numeric column become NaN, numbers for a string column are formatted.
func NewColumn(name string, kind Kind, values []Value) *Column {
	if kind == KindNumber {
		nums := make([]float64, len(values))
		for i, v := range values {
			nums[i] = v.Float()
		}

		return NewNumberColumn(name, nums)
	}

	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = v.String()
	}

	return NewStringColumn(name, strs)
}

// Len is the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == KindNumber {
		return len(c.Numbers)
	}

	return len(c.Strings)
}

// Value at row i.
func (c *Column) Value(i int) Value {
	if c.Kind == KindNumber {
		return Number(c.Numbers[i])
	}

	return String(c.Strings[i])
}

// Distinct returns the distinct values of the column, in order of first appearance.
func (c *Column) Distinct() []Value {
	seen := make(map[string]struct{})
	var values []Value

	for i := range c.Len() {
		v := c.Value(i)
		k := v.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		values = append(values, v)
	}

	return values
}

func (c *Column) clone() *Column {
	return &Column{
		Name:    c.Name,
		Kind:    c.Kind,
		Numbers: slices.Clone(c.Numbers),
		Strings: slices.Clone(c.Strings),
	}
}

// Table is an ordered collection of named columns of equal length.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a [Table] from columns.
//
// Column names must be unique and all columns must have the same length.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("invalid table: nil column at position %d", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("invalid table: duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("invalid table: column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}

		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}

	return t, nil
}

// MustNew is like [New] but panics on error. It is intended for tests and static fixtures.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}

	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// Len is the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Width is the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return t == nil || t.rows == 0
}

// Names returns the column names, in order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.Name)
	}

	return names
}

// Columns returns the columns, in order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Has reports whether the table holds a column with that name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]

	return ok
}

// Column retrieves a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}

	return t.columns[i], true
}

// Value at row i of the named column. It panics if the column does not exist.
func (t *Table) Value(name string, i int) Value {
	c, ok := t.Column(name)
	if !ok {
		panic(fmt.Sprintf("table: unknown column %q", name))
	}

	return c.Value(i)
}

// Row returns all values of row i, in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Value(i)
	}

	return row
}

// Distinct returns the distinct values of a column in order of first appearance,
// or nil if the column does not exist.
func (t *Table) Distinct(name string) []Value {
	c, ok := t.Column(name)
	if !ok {
		return nil
	}

	return c.Distinct()
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
	}

	return &Table{columns: cols, index: cloneIndex(t.index), rows: t.rows}
}

// Project returns a new table with the named columns only, in the given order.
//
// Unknown names are skipped.
func (t *Table) Project(names []string) *Table {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		if c, ok := t.Column(name); ok {
			cols = append(cols, c)
		}
	}

	out, err := New(cols...)
	if err != nil {
		// duplicates in names
		panic(err)
	}
	out.rows = t.rows

	return out
}

// With returns a new table where the column with the same name is replaced by c,
// or where c is appended when no such column exists.
func (t *Table) With(c *Column) (*Table, error) {
	if c.Len() != t.rows && len(t.columns) > 0 {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
	}

	cols := slices.Clone(t.columns)
	if i, ok := t.index[c.Name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}

	return New(cols...)
}

// Records renders the table as a header line followed by one line of strings per row.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.rows+1)
	records = append(records, t.Names())

	for i := range t.rows {
		record := make([]string, len(t.columns))
		for j, c := range t.columns {
			record[j] = c.Value(i).String()
		}
		records = append(records, record)
	}

	return records
}

// MarshalJSON renders the table as {"columns": [...], "rows": [[...], ...]}.
//
// Non-finite numbers are rendered as null.
func (t *Table) MarshalJSON() ([]byte, error) {
	type column struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}

	out := struct {
		Columns []column `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}{
		Columns: make([]column, 0, len(t.columns)),
		Rows:    make([][]any, 0, t.rows),
	}

	for _, c := range t.columns {
		out.Columns = append(out.Columns, column{Name: c.Name, Kind: c.Kind.String()})
	}

	for i := range t.rows {
		row := make([]any, len(t.columns))
		for j, c := range t.columns {
			v := c.Value(i)
			switch {
			case !v.IsNumber():
				row[j] = v.String()
			case math.IsNaN(v.num) || math.IsInf(v.num, 0):
				row[j] = nil
			default:
				row[j] = v.num
			}
		}
		out.Rows = append(out.Rows, row)
	}

	return json.Marshal(out)
}

func cloneIndex(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
