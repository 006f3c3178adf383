package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/storylet/internal/quality"
)

// Value is the sealed result type of expression evaluation.
//
// Implementations: Number, String, Bool, Null, Range.
type Value interface {
	value()
}

// Number is a double-precision numeric value.
type Number float64

// String is a text value.
type String string

// Bool is a boolean value.
type Bool bool

// Null is the value of an unresolved reference. It coerces to 0, "" and false.
type Null struct{}

// Range is an unrolled lo~hi range. It is compared by membership and rolled
// everywhere else.
type Range struct {
	Lo int
	Hi int
}

func (Number) value() {}
func (String) value() {}
func (Bool) value()   {}
func (Null) value()   {}
func (Range) value()  {}

// AsNumber coerces v to a number. ok is false for non-numeric strings and
// unrolled ranges.
func AsNumber(v Value) (n float64, ok bool) {
	switch x := v.(type) {
	case Number:
		return float64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	case Null:
		return 0, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case Range:
		return 0, false
	default:
		panic(fmt.Sprintf("engine: unknown value type %T", v))
	}
}

// AsString renders v the way templates print it: integers without a
// decimal point and Null as the empty string.
func AsString(v Value) string {
	switch x := v.(type) {
	case Number:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case String:
		return string(x)
	case Bool:
		return strconv.FormatBool(bool(x))
	case Null:
		return ""
	case Range:
		return fmt.Sprintf("%d~%d", x.Lo, x.Hi)
	default:
		panic(fmt.Sprintf("engine: unknown value type %T", v))
	}
}

// Truthy reports whether v passes a condition.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Number:
		return x != 0
	case Bool:
		return bool(x)
	case Null:
		return false
	case String:
		switch strings.ToLower(strings.TrimSpace(string(x))) {
		case "", "false", "0":
			return false
		}
		return true
	case Range:
		return x.Hi != 0 || x.Lo != 0
	default:
		panic(fmt.Sprintf("engine: unknown value type %T", v))
	}
}

// textValue reads numeric-looking text as a Number.
func textValue(s string) Value {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return String(s)
}

// compare orders a and b numerically when both coerce to numbers and by
// string comparison otherwise.
func compare(a, b Value) int {
	an, aok := AsNumber(a)
	bn, bok := AsNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(AsString(a), AsString(b))
}

// toOperand converts a settled value into a quality store operand.
func toOperand(v Value) quality.Operand {
	switch x := v.(type) {
	case Number:
		return quality.NumberOperand(float64(x))
	case Bool:
		if x {
			return quality.NumberOperand(1)
		}
		return quality.NumberOperand(0)
	case String:
		return quality.TextOperand(string(x))
	case Null:
		return quality.NullOperand()
	case Range:
		return quality.TextOperand(AsString(x))
	default:
		panic(fmt.Sprintf("engine: unknown value type %T", v))
	}
}
