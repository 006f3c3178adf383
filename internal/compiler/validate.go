package compiler

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/lang"
)

// Validation issue codes (E200-E299)
const (
	// Rule-language syntax (E201-E203)
	ErrTemplateSyntax  = "E201" // title, text, name or description fails to parse
	ErrConditionSyntax = "E202" // condition fails to parse
	ErrEffectSyntax    = "E203" // effect statement fails to parse

	// Quality definitions (E210-E219)
	ErrNegativeCap    = "E210" // cap below zero
	ErrInvalidSlot    = "E211" // slot name is not an identifier
	ErrCursedNoSlot   = "E212" // cursed quality that can never be equipped
	ErrStringWithSlot = "E213" // string quality listed as equippable

	// Cross-references (E220-E229)
	ErrRenderCycle = "E220" // name/description templates reference each other
)

// Issue is one problem found in compiled content.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Pos     int    `json:"pos,omitempty"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	if i.Pos > 0 {
		return fmt.Sprintf("[%s] %s at %d: %s", i.Code, i.Field, i.Pos, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Field, i.Message)
}

// Validate parses every template, condition and effect list in c and checks
// quality definitions. Returns all issues found (does not fail-fast), in
// quality order then storylet id order.
func Validate(c *ir.Content) []Issue {
	var issues []Issue

	for _, def := range c.Qualities.Ordered() {
		issues = append(issues, validateQuality(def)...)
	}
	for _, w := range AnalyzeCycles(c) {
		issues = append(issues, Issue{Field: "quality." + w.Path[0], Message: w.Message, Code: ErrRenderCycle})
	}
	for _, id := range c.SortedStoryletIDs() {
		issues = append(issues, validateStorylet(c.Storylets[id])...)
	}
	return issues
}

func validateQuality(def ir.QualityDefinition) []Issue {
	var issues []Issue
	prefix := "quality." + def.ID

	if def.Cap != nil && *def.Cap < 0 {
		issues = append(issues, Issue{
			Field:   prefix + ".cap",
			Message: fmt.Sprintf("cap must be >= 0, got %d", *def.Cap),
			Code:    ErrNegativeCap,
		})
	}

	slots := def.AllowedSlots()
	for _, slot := range slots {
		if !slotPattern.MatchString(slot) {
			issues = append(issues, Issue{
				Field:   prefix + ".slots",
				Message: fmt.Sprintf("invalid slot name %q", slot),
				Code:    ErrInvalidSlot,
			})
		}
	}
	if def.HasTag(ir.TagCursed) && len(slots) == 0 {
		issues = append(issues, Issue{
			Field:   prefix + ".properties.cursed",
			Message: "cursed quality has no slots and can never be equipped",
			Code:    ErrCursedNoSlot,
		})
	}
	if def.Kind == ir.KindString && len(slots) > 0 {
		issues = append(issues, Issue{
			Field:   prefix + ".slots",
			Message: "string qualities have no level and can never be owned for equipping",
			Code:    ErrStringWithSlot,
		})
	}

	issues = append(issues, checkTemplate(prefix+".name", def.Name)...)
	issues = append(issues, checkTemplate(prefix+".description", def.Description)...)
	return issues
}

func validateStorylet(s ir.Storylet) []Issue {
	prefix := "storylet." + s.ID

	issues := checkTemplate(prefix+".title", s.Title)
	issues = append(issues, checkTemplate(prefix+".text", s.Text)...)
	issues = append(issues, checkCondition(prefix+".condition", s.Condition)...)

	for i, b := range s.Branches {
		field := fmt.Sprintf("%s.branches[%d]", prefix, i)
		issues = append(issues, checkTemplate(field+".title", b.Title)...)
		issues = append(issues, checkTemplate(field+".text", b.Text)...)
		issues = append(issues, checkCondition(field+".condition", b.Condition)...)
		issues = append(issues, checkEffects(field+".effects", b.Effects)...)
	}
	return issues
}

func checkTemplate(field, src string) []Issue {
	if src == "" {
		return nil
	}
	if _, err := lang.ParseTemplate(src); err != nil {
		return []Issue{parseIssue(field, ErrTemplateSyntax, err)}
	}
	return nil
}

func checkCondition(field, src string) []Issue {
	if _, err := lang.ParseCondition(src); err != nil {
		return []Issue{parseIssue(field, ErrConditionSyntax, err)}
	}
	return nil
}

func checkEffects(field, src string) []Issue {
	_, errs := lang.ParseEffects(src)
	issues := make([]Issue, 0, len(errs))
	for _, pe := range errs {
		issues = append(issues, parseIssue(field, ErrEffectSyntax, pe))
	}
	return issues
}

func parseIssue(field, code string, err error) Issue {
	var pe *lang.ParseError
	if errors.As(err, &pe) {
		return Issue{Field: field, Message: pe.Message, Code: code, Pos: pe.Pos}
	}
	return Issue{Field: field, Message: err.Error(), Code: code}
}

// slotPattern matches slot names usable as @alias lookups.
var slotPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// DynamicQualities returns the sorted ids that effect lists assign to but
// no definition declares. Such qualities are created on first change.
// Computed targets (${...}) cannot be resolved statically and are skipped.
func DynamicQualities(c *ir.Content) []string {
	seen := make(map[string]bool)
	for _, s := range c.Storylets {
		for _, b := range s.Branches {
			collectTargets(b.Effects, c.Qualities, seen, 0)
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// collectTargets follows %apply arguments, which are effect lists too.
func collectTargets(src string, defs ir.Definitions, seen map[string]bool, depth int) {
	if depth > lang.MaxDepth {
		return
	}
	effects, _ := lang.ParseEffects(src)
	for _, eff := range effects {
		if eff.Macro != nil {
			if eff.Macro.Name == "apply" {
				collectTargets(strings.Join(eff.Macro.Args, ","), defs, seen, depth+1)
			}
			continue
		}
		if eff.Target.Kind != lang.RefQuality {
			continue
		}
		if _, ok := defs[eff.Target.Name]; !ok {
			seen[eff.Target.Name] = true
		}
	}
}
