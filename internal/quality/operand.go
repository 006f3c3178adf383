package quality

import (
	"math"
	"strconv"
	"strings"
)

// Operand is the evaluated right-hand side of an effect statement.
type Operand struct {
	num     float64
	str     string
	numeric bool
	null    bool
}

// NumberOperand wraps a numeric operand.
func NumberOperand(n float64) Operand {
	return Operand{num: n, numeric: true}
}

// TextOperand wraps a string operand. Numeric strings still apply to
// Pyramidal qualities.
func TextOperand(s string) Operand {
	return Operand{str: s}
}

// NullOperand is an absent or unresolved operand. It reads as 0 or "".
func NullOperand() Operand {
	return Operand{null: true}
}

// Float returns the numeric reading of the operand.
func (o Operand) Float() (float64, bool) {
	switch {
	case o.null:
		return 0, true
	case o.numeric:
		return o.num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(o.str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int truncates the numeric reading toward zero, so 2.9 reads as 2 and
// -0.5 as 0. Values beyond +/-MaxChangePoints saturate there.
func (o Operand) Int() (int, bool) {
	f, ok := o.Float()
	if !ok {
		return 0, false
	}
	f = math.Trunc(f)
	switch {
	case f > MaxChangePoints:
		return MaxChangePoints, true
	case f < -MaxChangePoints:
		return -MaxChangePoints, true
	}
	return int(f), true
}

// String returns the text reading of the operand.
func (o Operand) String() string {
	switch {
	case o.null:
		return ""
	case o.numeric:
		return strconv.FormatFloat(o.num, 'f', -1, 64)
	}
	return o.str
}

// IsText reports whether the operand is a non-numeric string.
func (o Operand) IsText() bool {
	_, ok := o.Float()
	return !ok
}
