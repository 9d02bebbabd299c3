package view

import (
	"fmt"
	"strings"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// NoneValue is the widget value standing for "nothing selected".
const NoneValue = "None"

func isNone(s string) bool {
	s = strings.TrimSpace(s)

	return s == "" || s == NoneValue
}

// Agg is the aggregation applied to the y column.
type Agg uint8

// Supported aggregations.
const (
	AggNone Agg = iota
	AggSum
	AggAve
	AggWeightedAve
)

var aggNames = [...]string{
	AggNone:        NoneValue,
	AggSum:         "Sum",
	AggAve:         "Ave",
	AggWeightedAve: "Weighted Ave",
}

func (a Agg) String() string {
	if int(a) < len(aggNames) {
		return aggNames[a]
	}

	return fmt.Sprintf("Agg(%d)", a)
}

// ParseAgg resolves an aggregation widget value.
func ParseAgg(s string) (Agg, error) {
	if isNone(s) {
		return AggNone, nil
	}

	for i, name := range aggNames {
		if strings.EqualFold(name, s) {
			return Agg(i), nil
		}
	}

	return AggNone, fmt.Errorf("y_agg %q: %w (should be one of %v)", s, ErrInvalidOption, AllAggs())
}

// AllAggs returns all aggregations, as widget values.
func AllAggs() []string {
	return aggNames[:]
}

// Op is the comparison operation against a base.
type Op uint8

// Supported comparison operations.
const (
	OpNone Op = iota
	OpDifference
	OpRatio
)

var opNames = [...]string{
	OpNone:       NoneValue,
	OpDifference: "Difference",
	OpRatio:      "Ratio",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}

	return fmt.Sprintf("Op(%d)", o)
}

// ParseOp resolves a comparison operation widget value.
func ParseOp(s string) (Op, error) {
	if isNone(s) {
		return OpNone, nil
	}

	for i, name := range opNames {
		if strings.EqualFold(name, s) {
			return Op(i), nil
		}
	}

	return OpNone, fmt.Errorf("adv_op %q: %w (should be one of %v)", s, ErrInvalidOption, AllOps())
}

// AllOps returns all comparison operations, as widget values.
func AllOps() []string {
	return opNames[:]
}

// ChartType is the kind of glyph used to render series.
type ChartType uint8

// Supported chart types.
const (
	ChartDot ChartType = iota
	ChartLine
	ChartBar
	ChartArea
)

var chartTypeNames = [...]string{
	ChartDot:  "Dot",
	ChartLine: "Line",
	ChartBar:  "Bar",
	ChartArea: "Area",
}

func (c ChartType) String() string {
	if int(c) < len(chartTypeNames) {
		return chartTypeNames[c]
	}

	return fmt.Sprintf("ChartType(%d)", c)
}

// IsStacked reports whether series are stacked on top of each other.
func (c ChartType) IsStacked() bool {
	switch c {
	case ChartBar, ChartArea:
		return true
	case ChartDot, ChartLine:
		return false
	default:
		return false
	}
}

// ParseChartType resolves a chart type widget value. The empty value defaults to Dot.
func ParseChartType(s string) (ChartType, error) {
	if strings.TrimSpace(s) == "" {
		return ChartDot, nil
	}

	for i, name := range chartTypeNames {
		if strings.EqualFold(name, s) {
			return ChartType(i), nil
		}
	}

	return ChartDot, fmt.Errorf("chart_type %q: %w (should be one of %v)", s, ErrInvalidOption, AllChartTypes())
}

// AllChartTypes returns all chart types, as widget values.
func AllChartTypes() []string {
	return chartTypeNames[:]
}

// BaseKind tells how the base of a comparison is determined.
type BaseKind uint8

// Supported kinds of base.
const (
	BaseNone BaseKind = iota
	BaseConsecutive
	BaseTotal
	BaseLiteral
)

// Sentinel widget values for bases that are not a literal value.
const (
	ConsecutiveValue = "Consecutive"
	TotalValue       = "Total"
)

// Base is the reference a comparison is computed against.
type Base struct {
	Kind  BaseKind
	Value table.Value // only for BaseLiteral
}

// IsSet reports whether a base is configured.
func (b Base) IsSet() bool {
	return b.Kind != BaseNone
}

func (b Base) String() string {
	switch b.Kind {
	case BaseConsecutive:
		return ConsecutiveValue
	case BaseTotal:
		return TotalValue
	case BaseLiteral:
		return b.Value.String()
	case BaseNone:
		return NoneValue
	default:
		return NoneValue
	}
}

// parseBase resolves the adv_col_base widget. Literal values are numbers when the column is continuous.
func parseBase(s string, col Column) (Base, error) {
	switch {
	case isNone(s):
		return Base{}, nil
	case s == ConsecutiveValue:
		return Base{Kind: BaseConsecutive}, nil
	case s == TotalValue:
		return Base{Kind: BaseTotal}, nil
	}

	if !col.IsContinuous() {
		return Base{Kind: BaseLiteral, Value: table.String(s)}, nil
	}

	f, err := parseFloat("adv_col_base", s)
	if err != nil {
		return Base{}, err
	}

	return Base{Kind: BaseLiteral, Value: table.Number(f)}, nil
}
