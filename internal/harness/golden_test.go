package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
)

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/forge_purchase.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRunWithGolden_PropagatesRunErrors(t *testing.T) {
	s := &Scenario{Name: "broken", Content: "quality: {", Steps: []Step{{Text: "hi"}}}
	_, err := RunWithGolden(t, s)
	assert.Error(t, err)
}

func TestFormatTrace(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Step: 1, Kind: StepText, Input: "{$a}", Output: "1"})
	result.AddTrace(TraceEvent{Step: 2, Kind: StepUnequip, Input: "hand", Error: "boom"})
	result.Qualities = ir.PlayerQualities{"b": ir.Text{Value: "x"}, "a": ir.Pyramidal{Level: 1, ChangePoints: 1}}
	result.Equipment = ir.Equipment{"hand": ""}
	result.AddError("step 2 (unequip): unexpected error: boom")

	want := `scenario demo pass=false
step 1 text: {$a}
  output: "1"
step 2 unequip: hand
  error: boom
qualities
  a 1 (cp 1)
  b "x"
equipment
  hand -
failure: step 2 (unequip): unexpected error: boom
`
	assert.Equal(t, want, string(FormatTrace("demo", result)))
}
