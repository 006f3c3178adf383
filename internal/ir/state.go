package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// QualityState is a sealed interface over a character's per-quality state.
// Only Pyramidal and Text implement it; callers switch on the concrete type.
type QualityState interface {
	qualityState() // Sealed - only these types implement it
}

// Pyramidal is a numeric quality. Level is always derived from ChangePoints
// (clamped to the definition cap); the quality package maintains that invariant.
type Pyramidal struct {
	Level        int `json:"level"`
	ChangePoints int `json:"cp"`
}

func (Pyramidal) qualityState() {}

// Text is a free-text quality.
type Text struct {
	Value string `json:"value"`
}

func (Text) qualityState() {}

// KindOf returns the kind tag for a state.
func KindOf(s QualityState) Kind {
	switch s.(type) {
	case Pyramidal:
		return KindPyramidal
	case Text:
		return KindString
	default:
		panic(fmt.Sprintf("ir: unknown QualityState %T", s))
	}
}

// FormatState renders a state for change logs and CLI output.
// A nil state renders as "-".
func FormatState(s QualityState) string {
	switch st := s.(type) {
	case nil:
		return "-"
	case Pyramidal:
		return fmt.Sprintf("%d (cp %d)", st.Level, st.ChangePoints)
	case Text:
		return fmt.Sprintf("%q", st.Value)
	default:
		panic(fmt.Sprintf("ir: unknown QualityState %T", s))
	}
}

// stateWire is the tagged JSON form of a QualityState.
type stateWire struct {
	Kind         Kind   `json:"kind"`
	Level        int    `json:"level,omitempty"`
	ChangePoints int    `json:"cp,omitempty"`
	Value        string `json:"value,omitempty"`
}

// MarshalState encodes a state with its kind tag.
func MarshalState(s QualityState) ([]byte, error) {
	switch st := s.(type) {
	case nil:
		return []byte("null"), nil
	case Pyramidal:
		return json.Marshal(stateWire{Kind: KindPyramidal, Level: st.Level, ChangePoints: st.ChangePoints})
	case Text:
		return json.Marshal(stateWire{Kind: KindString, Value: st.Value})
	default:
		return nil, fmt.Errorf("unknown QualityState type: %T", s)
	}
}

// UnmarshalState decodes a tagged state. JSON null decodes to a nil state.
func UnmarshalState(data []byte) (QualityState, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var w stateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case KindPyramidal:
		return Pyramidal{Level: w.Level, ChangePoints: w.ChangePoints}, nil
	case KindString:
		return Text{Value: w.Value}, nil
	default:
		return nil, fmt.Errorf("unknown quality kind %q", w.Kind)
	}
}

// PlayerQualities maps quality id to the character's state for it.
type PlayerQualities map[string]QualityState

// Clone returns an independent copy. States are values, so a shallow copy suffices.
func (q PlayerQualities) Clone() PlayerQualities {
	out := make(PlayerQualities, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// SortedIDs returns quality ids in lexical order.
func (q PlayerQualities) SortedIDs() []string {
	ids := make([]string, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MarshalJSON implements json.Marshaler with tagged states.
func (q PlayerQualities) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(q))
	for id, st := range q {
		b, err := MarshalState(st)
		if err != nil {
			return nil, fmt.Errorf("quality %q: %w", id, err)
		}
		raw[id] = b
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler for tagged states.
func (q *PlayerQualities) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = make(PlayerQualities, len(raw))
	for id, msg := range raw {
		st, err := UnmarshalState(msg)
		if err != nil {
			return fmt.Errorf("quality %q: %w", id, err)
		}
		if st != nil {
			(*q)[id] = st
		}
	}
	return nil
}
