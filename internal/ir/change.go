package ir

import (
	"encoding/json"
	"fmt"
)

// Op is an effect operator.
type Op string

const (
	OpSet       Op = "="
	OpAdd       Op = "+="
	OpSub       Op = "-="
	OpIncrement Op = "++"
	OpDecrement Op = "--"
)

// ValidOps defines the operators an effect statement may use.
var ValidOps = map[Op]bool{
	OpSet:       true,
	OpAdd:       true,
	OpSub:       true,
	OpIncrement: true,
	OpDecrement: true,
}

// Change records one applied mutation.
// Previous is nil when the statement created the quality.
type Change struct {
	Seq       int64             `json:"seq"`
	QualityID string            `json:"quality_id"`
	Op        Op                `json:"op"`
	Previous  QualityState      `json:"-"`
	New       QualityState      `json:"-"`
	Created   bool              `json:"created,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// String renders a change as a single log line.
func (c Change) String() string {
	s := fmt.Sprintf("#%d %s %s %s -> %s", c.Seq, c.QualityID, c.Op, FormatState(c.Previous), FormatState(c.New))
	if c.Created {
		s += " (created)"
	}
	return s
}

type changeWire struct {
	Seq       int64             `json:"seq"`
	QualityID string            `json:"quality_id"`
	Op        Op                `json:"op"`
	Previous  json.RawMessage   `json:"previous"`
	New       json.RawMessage   `json:"new"`
	Created   bool              `json:"created,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// MarshalJSON implements json.Marshaler with tagged states.
func (c Change) MarshalJSON() ([]byte, error) {
	prev, err := MarshalState(c.Previous)
	if err != nil {
		return nil, fmt.Errorf("previous: %w", err)
	}
	next, err := MarshalState(c.New)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return json.Marshal(changeWire{
		Seq:       c.Seq,
		QualityID: c.QualityID,
		Op:        c.Op,
		Previous:  prev,
		New:       next,
		Created:   c.Created,
		Meta:      c.Meta,
	})
}

// UnmarshalJSON implements json.Unmarshaler for tagged states.
func (c *Change) UnmarshalJSON(data []byte) error {
	var w changeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	prev, err := unmarshalOptionalState(w.Previous)
	if err != nil {
		return fmt.Errorf("previous: %w", err)
	}
	next, err := unmarshalOptionalState(w.New)
	if err != nil {
		return fmt.Errorf("new: %w", err)
	}
	*c = Change{
		Seq:       w.Seq,
		QualityID: w.QualityID,
		Op:        w.Op,
		Previous:  prev,
		New:       next,
		Created:   w.Created,
		Meta:      w.Meta,
	}
	return nil
}

func unmarshalOptionalState(raw json.RawMessage) (QualityState, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return UnmarshalState(raw)
}
