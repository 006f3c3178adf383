package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
)

func lookup(t *testing.T, src, path string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath(path))
}

func TestCompileQuality_Full(t *testing.T) {
	v := lookup(t, `
		quality: sword: {
			name: "Blade +{$.level}"
			description: "A plain blade"
			category: "weapon"
			cap: 5
			order: 2
			slots: ["hand", "offhand"]
			properties: { cursed: false, weight: 3, tier: "iron", ratio: 1.5 }
		}
	`, "quality.sword")

	def, err := CompileQuality(v)
	require.NoError(t, err)

	assert.Equal(t, "sword", def.ID)
	assert.Equal(t, ir.KindPyramidal, def.Kind)
	assert.Equal(t, "Blade +{$.level}", def.Name)
	assert.Equal(t, "A plain blade", def.Description)
	assert.Equal(t, "weapon", def.Category)
	require.NotNil(t, def.Cap)
	assert.Equal(t, 5, *def.Cap)
	assert.Equal(t, 2, def.Order)
	assert.Equal(t, "hand, offhand", def.Slots)
	assert.Equal(t, map[string]string{"cursed": "false", "weight": "3", "tier": "iron", "ratio": "1.5"}, def.Properties)
	assert.False(t, def.HasTag(ir.TagCursed))
}

func TestCompileQuality_Defaults(t *testing.T) {
	def, err := CompileQuality(lookup(t, `quality: gold: {}`, "quality.gold"))
	require.NoError(t, err)

	assert.Equal(t, ir.QualityDefinition{ID: "gold", Kind: ir.KindPyramidal, Name: "gold"}, def)
}

func TestCompileQuality_QuotedLabel(t *testing.T) {
	def, err := CompileQuality(lookup(t, `quality: "iron-ring": { slots: "hand" }`, `quality."iron-ring"`))
	require.NoError(t, err)
	assert.Equal(t, "iron-ring", def.ID)
	assert.Equal(t, "hand", def.Slots)
}

func TestCompileQuality_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"bad kind", `quality: q: { kind: "numeric" }`, "quality.q.kind"},
		{"non-integer cap", `quality: q: { cap: "high" }`, "quality.q.cap"},
		{"non-integer order", `quality: q: { order: 1.5 }`, "quality.q.order"},
		{"bad slots", `quality: q: { slots: 3 }`, "quality.q.slots"},
		{"bad property", `quality: q: { properties: { tags: ["a"] } }`, "quality.q.properties.tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileQuality(lookup(t, tt.src, "quality.q"))
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileQuality_StringKind(t *testing.T) {
	def, err := CompileQuality(lookup(t, `quality: name: { kind: "string", name: "Your name" }`, "quality.name"))
	require.NoError(t, err)
	assert.Equal(t, ir.KindString, def.Kind)
	assert.Equal(t, "Your name", def.Name)
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "quality.q.cap", Message: "cap must be an integer"}
	assert.Equal(t, "quality.q.cap: cap must be an integer", err.Error())
}
