package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted play-through checked against expected outputs
// and final character state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Content is inline CUE content. ContentDir names a directory of .cue
	// files instead, relative to the scenario file. Exactly one is set.
	Content    string `yaml:"content,omitempty"`
	ContentDir string `yaml:"content_dir,omitempty"`

	// Qualities is the starting character state. An integer is a pyramidal
	// level, a string is a String value, and {cp: N} sets change points.
	Qualities map[string]any `yaml:"qualities,omitempty"`

	// Equipment maps every known slot to its starting occupant ("" for empty).
	Equipment map[string]string `yaml:"equipment,omitempty"`

	World   map[string]string `yaml:"world,omitempty"`
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Rolls are the die faces returned, in order, to range expressions.
	Rolls []int `yaml:"rolls,omitempty"`

	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: level, cp, value, equipped, change_count
	Assertions []Assertion `yaml:"assertions"`
}

// Step runs exactly one engine operation.
type Step struct {
	Apply     string     `yaml:"apply,omitempty"`
	Condition string     `yaml:"condition,omitempty"`
	Text      string     `yaml:"text,omitempty"`
	Block     string     `yaml:"block,omitempty"`
	Equip     *EquipStep `yaml:"equip,omitempty"`
	Unequip   string     `yaml:"unequip,omitempty"`

	// Expect checks the step's outcome. If nil, nothing is checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// EquipStep places a quality in a slot.
type EquipStep struct {
	Slot    string `yaml:"slot"`
	Quality string `yaml:"quality"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Output is the rendered text, or "true"/"false" for conditions.
	Output *string `yaml:"output,omitempty"`

	// Changes is the number of changes an apply step records.
	Changes *int `yaml:"changes,omitempty"`

	// Error is the expected equipment error code, or "any" for apply steps
	// that must report at least one skipped statement.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "level": effective level of Quality equals Level
	// - "cp": change points of Quality equal CP
	// - "value": rendered value of Quality equals Value
	// - "equipped": Slot holds Quality ("" for empty)
	// - "change_count": the scenario recorded Count changes
	Type string `yaml:"type"`

	Quality string `yaml:"quality,omitempty"`
	Slot    string `yaml:"slot,omitempty"`
	Level   int    `yaml:"level,omitempty"`
	CP      int    `yaml:"cp,omitempty"`
	Value   string `yaml:"value,omitempty"`
	Count   int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLevel       = "level"
	AssertCP          = "cp"
	AssertValue       = "value"
	AssertEquipped    = "equipped"
	AssertChangeCount = "change_count"
)

// ExpectAnyError matches any skipped-statement error on an apply step.
const ExpectAnyError = "any"

// LoadScenario reads and parses a scenario YAML file. A relative
// content_dir is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.ContentDir != "" && !filepath.IsAbs(scenario.ContentDir) {
		scenario.ContentDir = filepath.Join(filepath.Dir(path), scenario.ContentDir)
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Content != "" && s.ContentDir != "" {
		return fmt.Errorf("content and content_dir are mutually exclusive")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for id, v := range s.Qualities {
		if _, err := convertState(v); err != nil {
			return fmt.Errorf("qualities.%s: %w", id, err)
		}
	}

	for i, step := range s.Steps {
		if _, err := step.kind(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Equip != nil && (step.Equip.Slot == "" || step.Equip.Quality == "") {
			return fmt.Errorf("steps[%d].equip: slot and quality are required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// kind returns the single operation a step names.
func (s Step) kind() (string, error) {
	var kinds []string
	if s.Apply != "" {
		kinds = append(kinds, StepApply)
	}
	if s.Condition != "" {
		kinds = append(kinds, StepCondition)
	}
	if s.Text != "" {
		kinds = append(kinds, StepText)
	}
	if s.Block != "" {
		kinds = append(kinds, StepBlock)
	}
	if s.Equip != nil {
		kinds = append(kinds, StepEquip)
	}
	if s.Unequip != "" {
		kinds = append(kinds, StepUnequip)
	}
	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("step names no operation")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("step names several operations: %v", kinds)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLevel, AssertCP, AssertValue:
		if a.Quality == "" {
			return fmt.Errorf("assertions[%d]: quality is required for %s", index, a.Type)
		}
	case AssertEquipped:
		if a.Slot == "" {
			return fmt.Errorf("assertions[%d]: slot is required for equipped", index)
		}
	case AssertChangeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for change_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
