package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/quality"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/forge_purchase.yaml")
	require.NoError(t, err)

	assert.Equal(t, "forge_purchase", s.Name)
	assert.Len(t, s.Steps, 10)
	assert.Len(t, s.Assertions, 6)
	assert.Equal(t, []int{3}, s.Rolls)
	assert.Equal(t, 4, s.Qualities["gold"])
	assert.Equal(t, "Smith", s.Qualities["title"])
	require.NotNil(t, s.Steps[4].Expect)
	assert.Equal(t, "CURSED", s.Steps[4].Expect.Error)
}

func TestLoadScenario_ResolvesContentDir(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/town_visit.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "content"), s.ContentDir)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nstep:\n  - text: hi\n"), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "steps: [{text: hi}]", "name is required"},
		{"no steps", "name: x", "steps list is required"},
		{"empty step", "name: x\nsteps: [{}]", "steps[0]: step names no operation"},
		{"two operations", "name: x\nsteps: [{text: hi, block: '{1}'}]", "several operations"},
		{"equip without quality", "name: x\nsteps: [{equip: {slot: hand}}]", "steps[0].equip"},
		{"both content sources", "name: x\ncontent: a\ncontent_dir: b\nsteps: [{text: hi}]", "mutually exclusive"},
		{"bad quality value", "name: x\nqualities: {gold: 1.5}\nsteps: [{text: hi}]", "qualities.gold"},
		{"negative level", "name: x\nqualities: {gold: -1}\nsteps: [{text: hi}]", "level must be within"},
		{"level too large", "name: x\nqualities: {gold: 70000}\nsteps: [{text: hi}]", "level must be within"},
		{"unknown assertion", "name: x\nsteps: [{text: hi}]\nassertions: [{type: vibes}]", "unknown assertion type"},
		{"level without quality", "name: x\nsteps: [{text: hi}]\nassertions: [{type: level}]", "quality is required"},
		{"equipped without slot", "name: x\nsteps: [{text: hi}]\nassertions: [{type: equipped}]", "slot is required"},
		{"negative count", "name: x\nsteps: [{text: hi}]\nassertions: [{type: change_count, count: -1}]", "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConvertState(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want ir.QualityState
	}{
		{"level", 3, ir.Pyramidal{Level: 3, ChangePoints: 6}},
		{"zero", 0, ir.Pyramidal{}},
		{"text", "Ada", ir.Text{Value: "Ada"}},
		{"change points", map[string]any{"cp": 5}, ir.Pyramidal{Level: 2, ChangePoints: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertState(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []any{true, 1.5, map[string]any{"level": 1}, map[string]any{"cp": "x"}, map[string]any{"cp": quality.MaxChangePoints + 1}, nil} {
		_, err := convertState(bad)
		assert.Error(t, err, "%v", bad)
	}
}
