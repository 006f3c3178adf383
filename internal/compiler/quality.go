package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/storylet/internal/ir"
)

// CompileQuality parses a CUE value into a QualityDefinition.
//
// The CUE value should be the quality struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`quality: gold: { name: "Gold" }`)
//	def, err := CompileQuality(v.LookupPath(cue.ParsePath("quality.gold")))
//
// Every field is optional. kind defaults to pyramidal and name to the id.
func CompileQuality(v cue.Value) (ir.QualityDefinition, error) {
	if err := v.Err(); err != nil {
		return ir.QualityDefinition{}, formatCUEError(err)
	}

	def := ir.QualityDefinition{ID: labelOf(v), Kind: ir.KindPyramidal}
	if def.ID == "" {
		return def, &CompileError{Field: "quality", Message: "quality must be declared under a label", Pos: v.Pos()}
	}
	field := func(name string) string { return "quality." + def.ID + "." + name }

	kind, ok, err := optionalString(v, "kind")
	if err != nil {
		return def, err
	}
	if ok {
		def.Kind = ir.Kind(kind)
		if !ir.ValidKinds[def.Kind] {
			return def, &CompileError{
				Field:   field("kind"),
				Message: fmt.Sprintf("kind must be %q or %q, got %q", ir.KindPyramidal, ir.KindString, kind),
				Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
			}
		}
	}

	if capVal := v.LookupPath(cue.ParsePath("cap")); capVal.Exists() {
		n, err := capVal.Int64()
		if err != nil {
			return def, &CompileError{Field: field("cap"), Message: "cap must be an integer", Pos: capVal.Pos()}
		}
		c := int(n)
		def.Cap = &c
	}

	if slotsVal := v.LookupPath(cue.ParsePath("slots")); slotsVal.Exists() {
		def.Slots, err = stringOrList(slotsVal, field("slots"))
		if err != nil {
			return def, err
		}
	}

	for name, dst := range map[string]*string{
		"name":        &def.Name,
		"description": &def.Description,
		"category":    &def.Category,
	} {
		s, _, err := optionalString(v, name)
		if err != nil {
			return def, err
		}
		*dst = s
	}
	if def.Name == "" {
		def.Name = def.ID
	}

	if orderVal := v.LookupPath(cue.ParsePath("order")); orderVal.Exists() {
		n, err := orderVal.Int64()
		if err != nil {
			return def, &CompileError{Field: field("order"), Message: "order must be an integer", Pos: orderVal.Pos()}
		}
		def.Order = int(n)
	}

	def.Properties, err = parseProperties(v, field("properties"))
	if err != nil {
		return def, err
	}
	return def, nil
}

// parseProperties reads the free-form properties struct. Scalars are
// stored in their text form so the rule language can read them back.
func parseProperties(v cue.Value, field string) (map[string]string, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, nil
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	props := make(map[string]string)
	for iter.Next() {
		s, err := scalarText(iter.Value())
		if err != nil {
			return nil, &CompileError{Field: field + "." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
		props[iter.Label()] = s
	}
	return props, nil
}

func scalarText(v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		b, err := v.Bool()
		return strconv.FormatBool(b), err
	case cue.IntKind:
		n, err := v.Int64()
		return strconv.FormatInt(n, 10), err
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		return strconv.FormatFloat(f, 'f', -1, 64), err
	default:
		return "", fmt.Errorf("property must be a string, number or bool, got %v", v.IncompleteKind())
	}
}

// optionalString looks up name and reports whether it was present.
func optionalString(v cue.Value, name string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", true, formatCUEError(err)
	}
	return s, true, nil
}

// stringOrList accepts "a, b" or ["a", "b"]; lists are joined with sep.
func stringOrList(v cue.Value, field string) (string, error) {
	return joinStrings(v, field, ", ")
}

func joinStrings(v cue.Value, field, sep string) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}
	iter, err := v.List()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string or a list of strings", Pos: v.Pos()}
	}
	var parts []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return "", &CompileError{Field: field, Message: "list entries must be strings", Pos: iter.Value().Pos()}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

// labelOf returns the final path selector of v, unquoted.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return strings.Trim(labels[len(labels)-1].String(), `"`)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
