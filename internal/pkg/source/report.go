package source

import (
	"math"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// Report allows to inspect the contents of a loaded table.
type Report struct {
	Rows           int                  `json:"rows"`
	Columns        []ColumnReport       `json:"columns"`
	Classification table.Classification `json:"classification"`
}

// ColumnReport describes a column. Min and Max are only reported for numeric columns.
type ColumnReport struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Distinct int      `json:"distinct_values"`
	Min      *float64 `json:"min_value,omitempty"`
	Max      *float64 `json:"max_value,omitempty"`
}

// Describe produces a [Report] for a table and its classification.
func Describe(t *table.Table, cls table.Classification) Report {
	r := Report{
		Rows:           t.Len(),
		Columns:        make([]ColumnReport, 0, t.Width()),
		Classification: cls,
	}

	for _, c := range t.Columns() {
		report := ColumnReport{
			Name:     c.Name,
			Kind:     c.Kind.String(),
			Distinct: len(c.Distinct()),
		}

		if c.Kind == table.KindNumber && c.Len() > 0 {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, n := range c.Numbers {
				lo = min(lo, n)
				hi = max(hi, n)
			}
			report.Min = &lo
			report.Max = &hi
		}

		r.Columns = append(r.Columns, report)
	}

	return r
}
