package parsenumber

import (
	"strconv"

	"parsenumber/internal/rowset"
)

// Number is the set of supported parse targets.
type Number interface {
	int | float64
}

// Parser converts text into one numeric target type and names the column
// that holds the result.
type Parser[T Number] interface {
	// TargetColumn returns the destination column for a source column name.
	TargetColumn(name string) rowset.TypedColumn[T]
	// TryParse converts s. ok is false for any malformed input.
	TryParse(s string) (v T, ok bool)
}

// IntParser parses base-10 signed integers in the native int range.
type IntParser struct{}

func (IntParser) TargetColumn(name string) rowset.TypedColumn[int] {
	return rowset.NewIntColumn("INT(" + name + ")")
}

// TryParse accepts an optional sign followed by decimal digits only.
func (IntParser) TryParse(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DoubleParser parses decimal and exponential floating-point literals.
type DoubleParser struct{}

func (DoubleParser) TargetColumn(name string) rowset.TypedColumn[float64] {
	return rowset.NewDoubleColumn("DOUBLE(" + name + ")")
}

// TryParse accepts [+-]digits[.digits][(e|E)[+-]digits] where the mantissa
// has at least one digit on either side of the point. Hex floats, Inf, NaN,
// digit separators and values outside the float64 range are rejected.
func (DoubleParser) TryParse(s string) (float64, bool) {
	if !isDecimalLiteral(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDecimalLiteral(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }
