package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/storylet/internal/engine"
	"github.com/roach88/storylet/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Step, event.Kind, event.Input)
	}
	return buf.String()
}

// AssertionContext provides what final-state assertions read from.
type AssertionContext struct {
	// Engine supplies effective levels, which honour caps.
	Engine *engine.Engine
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in order. A nil context fails level assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertLevel:
		return assertLevel(result, a, actx)
	case AssertCP:
		return assertCP(result, a)
	case AssertValue:
		return assertValue(result, a)
	case AssertEquipped:
		return assertEquipped(result, a)
	case AssertChangeCount:
		return assertChangeCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertLevel checks the effective level, which is the stored level
// clamped to the quality's cap.
func assertLevel(result *Result, a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Engine == nil {
		return fmt.Errorf("level assertion for %s requires an engine", a.Quality)
	}
	got := actx.Engine.EffectiveLevel(a.Quality)
	if got != a.Level {
		return &AssertionError{
			Type:     AssertLevel,
			Expected: fmt.Sprintf("%s at level %d", a.Quality, a.Level),
			Actual:   fmt.Sprintf("level %d", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertCP(result *Result, a Assertion) error {
	got := 0
	if st, ok := result.Qualities[a.Quality].(ir.Pyramidal); ok {
		got = st.ChangePoints
	}
	if got != a.CP {
		return &AssertionError{
			Type:     AssertCP,
			Expected: fmt.Sprintf("%s with %d change points", a.Quality, a.CP),
			Actual:   fmt.Sprintf("%d change points", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertValue compares the quality's value as text: a String's value or a
// Pyramidal's stored level. A missing quality reads as "".
func assertValue(result *Result, a Assertion) error {
	var got string
	switch st := result.Qualities[a.Quality].(type) {
	case nil:
	case ir.Text:
		got = st.Value
	case ir.Pyramidal:
		got = strconv.Itoa(st.Level)
	default:
		panic(fmt.Sprintf("harness: unknown QualityState %T", st))
	}
	if got != a.Value {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s = %q", a.Quality, a.Value),
			Actual:   fmt.Sprintf("%q", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertEquipped(result *Result, a Assertion) error {
	got := result.Equipment[a.Slot]
	if got != a.Quality {
		return &AssertionError{
			Type:     AssertEquipped,
			Expected: fmt.Sprintf("slot %s holds %q", a.Slot, a.Quality),
			Actual:   fmt.Sprintf("%q", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertChangeCount(result *Result, a Assertion) error {
	if len(result.Changes) != a.Count {
		return &AssertionError{
			Type:     AssertChangeCount,
			Expected: fmt.Sprintf("%d changes", a.Count),
			Actual:   fmt.Sprintf("%d changes", len(result.Changes)),
			Trace:    result.Trace,
		}
	}
	return nil
}
