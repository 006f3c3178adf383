package quality

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/storylet/internal/ir"
)

// Store holds one character's qualities during an evaluation.
//
// Store does not stamp Change.Seq; the caller owns the logical clock.
// Store is not safe for concurrent use.
type Store struct {
	defs    ir.Definitions
	states  ir.PlayerQualities
	caps    map[string]int
	dynamic map[string]bool
}

// NewStore copies states so callers keep their original snapshot.
func NewStore(defs ir.Definitions, states ir.PlayerQualities) *Store {
	if defs == nil {
		defs = ir.Definitions{}
	}
	return &Store{
		defs:    defs,
		states:  states.Clone(),
		caps:    make(map[string]int),
		dynamic: make(map[string]bool),
	}
}

// Definition returns the content definition for id, if any.
func (s *Store) Definition(id string) (ir.QualityDefinition, bool) {
	d, ok := s.defs[id]
	return d, ok
}

// Get returns the current state for id.
func (s *Store) Get(id string) (ir.QualityState, bool) {
	st, ok := s.states[id]
	return st, ok
}

// Cap returns the level cap for id: the definition's cap, else the cap
// given when the quality was created dynamically, else nil.
func (s *Store) Cap(id string) *int {
	if d, ok := s.defs[id]; ok && d.Cap != nil {
		c := *d.Cap
		return &c
	}
	if c, ok := s.caps[id]; ok {
		return &c
	}
	return nil
}

// EffectiveLevel returns min(LevelFor(cp), cap) for Pyramidal qualities and
// 0 for String or missing ones.
func (s *Store) EffectiveLevel(id string) int {
	st, ok := s.states[id]
	if !ok {
		return 0
	}
	switch v := st.(type) {
	case ir.Pyramidal:
		return clampLevel(LevelFor(v.ChangePoints), s.Cap(id))
	case ir.Text:
		return 0
	default:
		panic(fmt.Sprintf("quality: unknown state type %T", st))
	}
}

// ChangePoints returns the accumulated change points, 0 for non-Pyramidal.
func (s *Store) ChangePoints(id string) int {
	if p, ok := s.states[id].(ir.Pyramidal); ok {
		return p.ChangePoints
	}
	return 0
}

// Change applies op to id. An unknown id is created first (a dynamic
// quality when no definition exists); the returned Change then has
// Created set and a nil Previous.
//
// Pyramidal:
//   - += / -= move change points (floored at 0) and recompute the level.
//     Operands truncate toward zero; cp saturates at MaxChangePoints.
//   - = sets the level directly and rebases cp to Triangular(level).
//   - ++ / -- step the level by one and rebase cp.
//
// String: only = is valid.
func (s *Store) Change(id string, op ir.Op, v Operand, meta map[string]string) (ir.Change, error) {
	if !ir.ValidOps[op] {
		return ir.Change{}, fmt.Errorf("%w %q", ErrInvalidOp, op)
	}

	prev, exists := s.states[id]
	cur := prev
	if !exists {
		cur = s.zeroState(id, v)
	}

	next, err := s.apply(id, cur, op, v)
	if err != nil {
		return ir.Change{}, err
	}

	s.states[id] = next
	ch := ir.Change{
		QualityID: id,
		Op:        op,
		New:       next,
		Meta:      cloneMeta(meta),
	}
	if exists {
		ch.Previous = prev
	} else {
		ch.Created = true
		s.markCreated(id)
	}
	return ch, nil
}

// Create instantiates id with value. limit bounds the level of a quality with
// no definition cap. If id already exists it is assigned, never recreated.
func (s *Store) Create(id string, v Operand, limit *int, meta map[string]string) (ir.Change, error) {
	if _, exists := s.states[id]; !exists && limit != nil && s.Cap(id) == nil {
		s.caps[id] = *limit
	}
	ch, err := s.Change(id, ir.OpSet, v, meta)
	if err != nil && !s.has(id) {
		delete(s.caps, id)
	}
	return ch, err
}

// Snapshot returns a deep copy of the current states.
func (s *Store) Snapshot() ir.PlayerQualities {
	return s.states.Clone()
}

// Dynamic returns the sorted ids created without a definition.
func (s *Store) Dynamic() []string {
	return slices.Sorted(maps.Keys(s.dynamic))
}

func (s *Store) has(id string) bool {
	_, ok := s.states[id]
	return ok
}

func (s *Store) markCreated(id string) {
	if _, defined := s.defs[id]; !defined {
		s.dynamic[id] = true
	}
}

// zeroState picks the kind for a new quality: the definition's kind, or
// Text for a non-numeric string operand, or Pyramidal.
func (s *Store) zeroState(id string, v Operand) ir.QualityState {
	kind := ir.KindPyramidal
	if d, ok := s.defs[id]; ok && d.Kind != "" {
		kind = d.Kind
	} else if v.IsText() {
		kind = ir.KindString
	}
	if kind == ir.KindString {
		return ir.Text{}
	}
	return ir.Pyramidal{}
}

func (s *Store) apply(id string, st ir.QualityState, op ir.Op, v Operand) (ir.QualityState, error) {
	switch cur := st.(type) {
	case ir.Pyramidal:
		return s.applyPyramidal(id, cur, op, v)
	case ir.Text:
		if op != ir.OpSet {
			return nil, &TypeMismatchError{QualityID: id, Kind: ir.KindString, Op: op, Reason: "only = applies to string qualities"}
		}
		return ir.Text{Value: v.String()}, nil
	default:
		panic(fmt.Sprintf("quality: unknown state type %T", st))
	}
}

func (s *Store) applyPyramidal(id string, cur ir.Pyramidal, op ir.Op, v Operand) (ir.QualityState, error) {
	limit := s.Cap(id)

	switch op {
	case ir.OpIncrement, ir.OpDecrement:
		level := clampLevel(LevelFor(cur.ChangePoints), limit)
		if op == ir.OpIncrement {
			level++
		} else {
			level--
		}
		level = clampLevel(level, limit)
		return ir.Pyramidal{Level: level, ChangePoints: Triangular(level)}, nil
	}

	n, ok := v.Int()
	if !ok {
		return nil, &TypeMismatchError{QualityID: id, Kind: ir.KindPyramidal, Op: op, Reason: fmt.Sprintf("non-numeric operand %q", v.String())}
	}

	switch op {
	case ir.OpSet:
		level := clampLevel(n, limit)
		return ir.Pyramidal{Level: level, ChangePoints: Triangular(level)}, nil
	case ir.OpAdd, ir.OpSub:
		if op == ir.OpSub {
			n = -n
		}
		cp := addChangePoints(cur.ChangePoints, n)
		return ir.Pyramidal{Level: clampLevel(LevelFor(cp), limit), ChangePoints: cp}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidOp, op)
	}
}

func cloneMeta(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	return maps.Clone(meta)
}
