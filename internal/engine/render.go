package engine

import (
	"slices"

	"github.com/roach88/storylet/internal/ir"
)

// RenderStorylet returns a copy of s with every template resolved.
// Visible reports the storylet's condition; each branch's Locked is the
// negation of its condition. Effects are left as source.
func (e *Engine) RenderStorylet(s ir.Storylet) ir.Storylet {
	out := s
	out.Title = e.EvaluateText(s.Title)
	out.Text = e.EvaluateText(s.Text)
	out.Visible = e.EvaluateCondition(s.Condition)
	out.Tags = slices.Clone(s.Tags)
	if len(s.Branches) == 0 {
		return out
	}
	out.Branches = make([]ir.Branch, len(s.Branches))
	for i, b := range s.Branches {
		rb := b
		rb.Title = e.EvaluateText(b.Title)
		rb.Text = e.EvaluateText(b.Text)
		rb.Locked = !e.EvaluateCondition(b.Condition)
		out.Branches[i] = rb
	}
	return out
}

// RenderedQuality is a quality's definition rendered against current state.
type RenderedQuality struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Level       int             `json:"level"`
	State       ir.QualityState `json:"-"`
	Slot        string          `json:"slot,omitempty"`
}

// RenderQuality renders id's name and description with $. bound to id.
// A quality with no definition is named by its id.
func (e *Engine) RenderQuality(id string) RenderedQuality {
	def := e.defs[id]
	st, _ := e.store.Get(id)
	rq := RenderedQuality{
		ID:       id,
		Name:     id,
		Category: def.Category,
		Level:    e.store.EffectiveLevel(id),
		State:    st,
		Slot:     e.equip.SlotOf(id),
	}
	if def.Name != "" {
		rq.Name = e.renderFor(id, def.Name)
	}
	if def.Description != "" {
		rq.Description = e.renderFor(id, def.Description)
	}
	return rq
}
