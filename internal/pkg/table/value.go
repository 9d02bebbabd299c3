package table

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

// Kind tells if a column holds strings or numbers.
type Kind uint8

// Supported column kinds.
const (
	KindString Kind = iota
	KindNumber
)

// String returns a readable name for the [Kind].
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a single scalar cell, either a number or a string.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Number builds a numeric [Value].
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// String builds a string [Value].
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// Float returns the numeric content of the value, or NaN for a string value.
func (v Value) Float() float64 {
	if v.kind != KindNumber {
		return math.NaN()
	}

	return v.num
}

// String renders the value the way it is displayed in labels and exported to CSV.
//
// Numbers use the shortest decimal representation, e.g. 2010 or 0.2.
func (v Value) String() string {
	if v.kind == KindNumber {
		return FormatNumber(v.num)
	}

	return v.str
}

// Equal reports whether two values are equal. NaN is never equal to anything.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	if v.kind == KindNumber {
		return v.num == o.num
	}

	return v.str == o.str
}

// Compare orders values: numbers numerically, strings lexically, numbers before strings.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind == KindNumber {
			return -1
		}

		return 1
	}

	if a.kind == KindNumber {
		return cmp.Compare(a.num, b.num)
	}

	return strings.Compare(a.str, b.str)
}

// FormatNumber renders a float the way numeric values are displayed.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// key builds a map key that distinguishes kinds.
func (v Value) key() string {
	if v.kind == KindNumber {
		return "n" + strconv.FormatFloat(v.num, 'g', -1, 64)
	}

	return "s" + v.str
}
