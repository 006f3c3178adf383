package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/engine"
	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/testutil"
)

func assertionFixture() (*Result, *AssertionContext) {
	quals := ir.PlayerQualities{
		"gold":  ir.Pyramidal{Level: 5, ChangePoints: 17},
		"title": ir.Text{Value: "Smith"},
	}
	defs := testutil.Definitions(testutil.PyramidalDef("gold", testutil.IntPtr(3)))

	result := NewResult()
	result.AddTrace(TraceEvent{Step: 1, Kind: StepApply, Input: "$gold += 17"})
	result.Qualities = quals
	result.Equipment = ir.Equipment{"hand": "sword", "head": ""}
	result.Changes = []ir.Change{{Seq: 1, QualityID: "gold", Op: ir.OpAdd}}

	eng := engine.New(engine.Context{Definitions: defs, Qualities: quals}, engine.WithLogger(testutil.DiscardLogger()))
	return result, &AssertionContext{Engine: eng}
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	result, actx := assertionFixture()
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertLevel, Quality: "gold", Level: 3},
		{Type: AssertLevel, Quality: "missing", Level: 0},
		{Type: AssertCP, Quality: "gold", CP: 17},
		{Type: AssertCP, Quality: "title", CP: 0},
		{Type: AssertValue, Quality: "title", Value: "Smith"},
		{Type: AssertValue, Quality: "gold", Value: "5"},
		{Type: AssertValue, Quality: "missing", Value: ""},
		{Type: AssertEquipped, Slot: "hand", Quality: "sword"},
		{Type: AssertEquipped, Slot: "head", Quality: ""},
		{Type: AssertEquipped, Slot: "feet", Quality: ""},
		{Type: AssertChangeCount, Count: 1},
	}, actx)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	result, actx := assertionFixture()
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"level", Assertion{Type: AssertLevel, Quality: "gold", Level: 5}, "Expected: gold at level 5\n  Actual: level 3"},
		{"cp", Assertion{Type: AssertCP, Quality: "gold", CP: 1}, "Actual: 17 change points"},
		{"value", Assertion{Type: AssertValue, Quality: "title", Value: "Baker"}, `Expected: title = "Baker"`},
		{"equipped", Assertion{Type: AssertEquipped, Slot: "hand", Quality: "axe"}, `Actual: "sword"`},
		{"change count", Assertion{Type: AssertChangeCount, Count: 4}, "Expected: 4 changes"},
		{"unknown", Assertion{Type: "vibes"}, "unknown assertion type: vibes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, actx)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	result, actx := assertionFixture()
	errs := EvaluateAssertions(result, []Assertion{{Type: AssertChangeCount, Count: 0}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: change_count")
	assert.Contains(t, errs[0], "Full trace:\n  [1] apply $gold += 17")
}

func TestEvaluateAssertions_LevelRequiresEngine(t *testing.T) {
	result, _ := assertionFixture()
	errs := EvaluateAssertions(result, []Assertion{{Type: AssertLevel, Quality: "gold", Level: 3}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires an engine")
}
