package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
)

func defsWithNames(names map[string]string) *ir.Content {
	c := ir.NewContent()
	for id, name := range names {
		c.Qualities[id] = ir.QualityDefinition{ID: id, Kind: ir.KindPyramidal, Name: name}
	}
	return c
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(ir.NewContent()))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	c := defsWithNames(map[string]string{
		"sword":  "Blade of {$owner.name}",
		"owner":  "Smith {$town.name}",
		"town":   "Ashford",
		"shield": "Shield +{$.level}",
	})
	assert.Empty(t, AnalyzeCycles(c), "level reads do not render templates")
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	c := defsWithNames(map[string]string{"mirror": "Mirror of {$.name}"})

	warnings := AnalyzeCycles(c)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"mirror", "mirror"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "renders its own name")
}

func TestAnalyzeCycles_MultiNode(t *testing.T) {
	c := defsWithNames(map[string]string{
		"a": "{$b.name}",
		"b": "{ $c : {$c.description} }",
		"c": "plain",
	})
	def := c.Qualities["c"]
	def.Description = "see {$a.name}"
	c.Qualities["c"] = def

	warnings := AnalyzeCycles(c)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
	assert.Equal(t, "render cycle: a -> b -> c -> a", warnings[0].Message)
}

func TestAnalyzeCycles_IgnoresUndefinedTargets(t *testing.T) {
	c := defsWithNames(map[string]string{"a": "{$ghost.name}"})
	assert.Empty(t, AnalyzeCycles(c))
}

func TestValidate_ReportsCycles(t *testing.T) {
	c := defsWithNames(map[string]string{"mirror": "{$mirror.name}"})

	issues := Validate(c)
	require.Len(t, issues, 1)
	assert.Equal(t, ErrRenderCycle, issues[0].Code)
	assert.Equal(t, "quality.mirror", issues[0].Field)
}
