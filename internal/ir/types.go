package ir

import (
	"slices"
	"strings"
)

// Kind distinguishes numeric pyramidal qualities from free-text ones.
type Kind string

const (
	// KindPyramidal is a numeric quality whose level grows on a triangular curve.
	KindPyramidal Kind = "pyramidal"

	// KindString is a free-text quality.
	KindString Kind = "string"
)

// ValidKinds defines the allowed quality kinds.
var ValidKinds = map[Kind]bool{
	KindPyramidal: true,
	KindString:    true,
}

// TagCursed marks a quality that cannot be unequipped once worn.
const TagCursed = "cursed"

// QualityDefinition is the authored description of a quality.
// Name and Description are templates and may embed the rule language.
type QualityDefinition struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	Cap         *int              `json:"cap,omitempty"`
	Slots       string            `json:"slots,omitempty"` // comma list of equipment slots
	Properties  map[string]string `json:"properties,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Order       int               `json:"order"`
}

// AllowedSlots returns the trimmed, non-empty slot names from Slots.
func (d QualityDefinition) AllowedSlots() []string {
	var slots []string
	for _, s := range strings.Split(d.Slots, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			slots = append(slots, s)
		}
	}
	return slots
}

// AllowsSlot reports whether the quality may be equipped in slot.
func (d QualityDefinition) AllowsSlot(slot string) bool {
	return slices.Contains(d.AllowedSlots(), slot)
}

// HasTag reports whether a property is set to a truthy value.
// "", "false" and "0" count as unset.
func (d QualityDefinition) HasTag(name string) bool {
	v, ok := d.Properties[name]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0":
		return false
	}
	return true
}

// Definitions maps quality id to its definition.
type Definitions map[string]QualityDefinition

// Ordered returns definitions sorted by author order, then id.
func (d Definitions) Ordered() []QualityDefinition {
	out := make([]QualityDefinition, 0, len(d))
	for _, def := range d {
		out = append(out, def)
	}
	slices.SortFunc(out, func(a, b QualityDefinition) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Equipment maps slot name to the equipped quality id ("" when empty).
type Equipment map[string]string

// Clone returns an independent copy.
func (e Equipment) Clone() Equipment {
	out := make(Equipment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// SlotOf returns the slot holding qualityID, or "" if it is not equipped.
// Slots are scanned in sorted order so the answer is deterministic.
func (e Equipment) SlotOf(qualityID string) string {
	slots := make([]string, 0, len(e))
	for s := range e {
		slots = append(slots, s)
	}
	slices.Sort(slots)
	for _, s := range slots {
		if e[s] == qualityID && qualityID != "" {
			return s
		}
	}
	return ""
}

// WorldState is the shared, world-scoped overlay addressed with #id.
// Values are raw strings; numeric strings coerce to numbers on use.
type WorldState map[string]string

// Clone returns an independent copy.
func (w WorldState) Clone() WorldState {
	out := make(WorldState, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Storylet is a piece of narrative content gated by Condition.
type Storylet struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Condition string   `json:"condition,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Branches  []Branch `json:"branches,omitempty"`

	// Visible is only meaningful on rendered copies.
	Visible bool `json:"visible,omitempty"`
}

// Branch is one choice offered by a storylet.
type Branch struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text,omitempty"`
	Condition string `json:"condition,omitempty"`
	Effects   string `json:"effects,omitempty"`

	// Locked is only meaningful on rendered copies.
	Locked bool `json:"locked,omitempty"`
}

// Content is the full set of authored definitions loaded for one evaluation.
type Content struct {
	Qualities Definitions         `json:"qualities"`
	Storylets map[string]Storylet `json:"storylets"`
}

// NewContent returns empty, non-nil content.
func NewContent() *Content {
	return &Content{
		Qualities: make(Definitions),
		Storylets: make(map[string]Storylet),
	}
}

// SortedStoryletIDs returns storylet ids in lexical order.
func (c *Content) SortedStoryletIDs() []string {
	ids := make([]string, 0, len(c.Storylets))
	for id := range c.Storylets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
