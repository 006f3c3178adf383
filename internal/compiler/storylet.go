package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/storylet/internal/ir"
)

// CompileStorylet parses a CUE value into a Storylet.
//
// The CUE value should be the storylet struct itself, e.g.:
//
//	v := ctx.CompileString(`storylet: forge: { title: "The Forge", text: "..." }`)
//	s, err := CompileStorylet(v.LookupPath(cue.ParsePath("storylet.forge")))
//
// title is required. Every rule-language field is kept as source; it is
// parsed at evaluation time or by Validate.
func CompileStorylet(v cue.Value) (ir.Storylet, error) {
	if err := v.Err(); err != nil {
		return ir.Storylet{}, formatCUEError(err)
	}

	s := ir.Storylet{ID: labelOf(v)}
	if s.ID == "" {
		return s, &CompileError{Field: "storylet", Message: "storylet must be declared under a label", Pos: v.Pos()}
	}
	prefix := "storylet." + s.ID

	title, ok, err := optionalString(v, "title")
	if err != nil {
		return s, err
	}
	if !ok {
		return s, &CompileError{Field: prefix + ".title", Message: "title is required", Pos: v.Pos()}
	}
	s.Title = title

	if s.Text, _, err = optionalString(v, "text"); err != nil {
		return s, err
	}
	if s.Condition, err = parseCondition(v, prefix+".condition"); err != nil {
		return s, err
	}

	if tagsVal := v.LookupPath(cue.ParsePath("tags")); tagsVal.Exists() {
		iter, err := tagsVal.List()
		if err != nil {
			return s, &CompileError{Field: prefix + ".tags", Message: "tags must be a list of strings", Pos: tagsVal.Pos()}
		}
		for iter.Next() {
			tag, err := iter.Value().String()
			if err != nil {
				return s, formatCUEError(err)
			}
			s.Tags = append(s.Tags, tag)
		}
	}

	s.Branches, err = parseBranches(v, prefix)
	if err != nil {
		return s, err
	}
	return s, nil
}

// parseBranches extracts the ordered branch list.
func parseBranches(v cue.Value, prefix string) ([]ir.Branch, error) {
	branchesVal := v.LookupPath(cue.ParsePath("branches"))
	if !branchesVal.Exists() {
		return nil, nil
	}

	iter, err := branchesVal.List()
	if err != nil {
		return nil, &CompileError{Field: prefix + ".branches", Message: "branches must be a list", Pos: branchesVal.Pos()}
	}

	var branches []ir.Branch
	seen := make(map[string]bool)
	for i := 0; iter.Next(); i++ {
		bv := iter.Value()
		field := fmt.Sprintf("%s.branches[%d]", prefix, i)

		id, ok, err := optionalString(bv, "id")
		if err != nil {
			return nil, err
		}
		if !ok || id == "" {
			return nil, &CompileError{Field: field + ".id", Message: "branch id is required", Pos: bv.Pos()}
		}
		if seen[id] {
			return nil, &CompileError{Field: field + ".id", Message: fmt.Sprintf("duplicate branch id %q", id), Pos: bv.Pos()}
		}
		seen[id] = true

		b := ir.Branch{ID: id}
		if b.Title, _, err = optionalString(bv, "title"); err != nil {
			return nil, err
		}
		if b.Title == "" {
			b.Title = id
		}
		if b.Text, _, err = optionalString(bv, "text"); err != nil {
			return nil, err
		}
		if b.Condition, err = parseCondition(bv, field+".condition"); err != nil {
			return nil, err
		}
		if effVal := bv.LookupPath(cue.ParsePath("effects")); effVal.Exists() {
			if b.Effects, err = joinStrings(effVal, field+".effects", ", "); err != nil {
				return nil, err
			}
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// parseCondition accepts a condition string or a list of condition strings;
// a list joins with "," so its entries combine with AND.
func parseCondition(v cue.Value, field string) (string, error) {
	condVal := v.LookupPath(cue.ParsePath("condition"))
	if !condVal.Exists() {
		return "", nil
	}
	return joinStrings(condVal, field, ", ")
}
