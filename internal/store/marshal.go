package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/storylet/internal/ir"
)

// marshalQualities converts qualities to canonical JSON TEXT for storage.
func marshalQualities(q ir.PlayerQualities) (string, error) {
	if q == nil {
		q = ir.PlayerQualities{}
	}
	data, err := ir.MarshalCanonical(q)
	if err != nil {
		return "", fmt.Errorf("marshal qualities: %w", err)
	}
	return string(data), nil
}

// marshalStrings converts equipment or metadata maps to canonical JSON TEXT.
func marshalStrings(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// marshalState stores a tagged state; a nil state is stored as "null".
func marshalState(st ir.QualityState) (string, error) {
	data, err := ir.MarshalState(st)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

func unmarshalQualities(data string) (ir.PlayerQualities, error) {
	q := ir.PlayerQualities{}
	if data == "" || data == "{}" {
		return q, nil
	}
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, fmt.Errorf("unmarshal qualities: %w", err)
	}
	return q, nil
}

func unmarshalStrings(data string) (map[string]string, error) {
	m := map[string]string{}
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return m, nil
}

func unmarshalState(data string) (ir.QualityState, error) {
	st, err := ir.UnmarshalState([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}
