package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/storylet/internal/ir"
)

// FormatTrace renders a result as stable text for golden comparison:
// every step with its output and changes, then the final state.
func FormatTrace(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s pass=%t\n", name, result.Pass)

	for _, ev := range result.Trace {
		fmt.Fprintf(&b, "step %d %s: %s\n", ev.Step, ev.Kind, ev.Input)
		if ev.Output != "" {
			fmt.Fprintf(&b, "  output: %q\n", ev.Output)
		}
		for _, ch := range ev.Changes {
			fmt.Fprintf(&b, "  change %s\n", ch)
		}
		if len(ev.Cleared) > 0 {
			fmt.Fprintf(&b, "  cleared: %s\n", strings.Join(ev.Cleared, ", "))
		}
		if ev.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", ev.Error)
		}
	}

	b.WriteString("qualities\n")
	for _, id := range result.Qualities.SortedIDs() {
		fmt.Fprintf(&b, "  %s %s\n", id, ir.FormatState(result.Qualities[id]))
	}
	b.WriteString("equipment\n")
	for _, slot := range slices.Sorted(maps.Keys(result.Equipment)) {
		id := result.Equipment[slot]
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(&b, "  %s %s\n", slot, id)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(&b, "failure: %s\n", msg)
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatTrace(name, result))
}
