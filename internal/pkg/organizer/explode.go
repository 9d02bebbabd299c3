package organizer

import (
	"strings"

	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

// Label tells which value of an explode column a [Group] stands for.
type Label struct {
	Column string
	Value  table.Value
}

// String renders the label as "column = value".
func (l Label) String() string {
	return l.Column + " = " + l.Value.String()
}

// Group is the subset of the derived table drawn in one chart.
type Group struct {
	Labels []Label
	Data   *table.Table
}

// Title builds the title of the chart for this group: the prefix, then the labels
// of the outer and inner explode columns, joined by ", ".
func (g Group) Title(prefix string) string {
	parts := make([]string, 0, len(g.Labels)+1)
	if prefix != "" {
		parts = append(parts, prefix)
	}

	for _, l := range g.Labels {
		parts = append(parts, l.String())
	}

	return strings.Join(parts, ", ")
}

// Explode splits the derived table into one group per chart.
//
// Without an explode column, there is a single group holding the whole table.
// Groups follow the order of first appearance of the explode values. With an explode group
// column, groups are ordered by explode group first, then by explode value within each explode group.
func Explode(derived *table.Table, v *view.View) []Group {
	if !v.Explode.IsSet() || !derived.Has(v.Explode.Name()) {
		return []Group{{Data: derived}}
	}

	columns := []string{v.Explode.Name()}
	if v.ExplodeGroup.IsSet() && derived.Has(v.ExplodeGroup.Name()) {
		columns = []string{v.ExplodeGroup.Name(), v.Explode.Name()}
	}

	partitions := derived.GroupBy(columns...)
	groups := make([]Group, 0, len(partitions))

	for _, p := range partitions {
		labels := make([]Label, len(columns))
		for i, column := range columns {
			labels[i] = Label{Column: column, Value: p.Keys[i]}
		}
		groups = append(groups, Group{Labels: labels, Data: derived.Select(p.Rows)})
	}

	return groups
}
