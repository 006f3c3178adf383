package testutil

import (
	"fmt"
	"sync"
)

// SequenceRoller is a deterministic dice.Roller for tests.
//
// Each Roll returns the next face from the sequence, cycling when it runs
// out, clamped to [1, size]. This lets a scenario pin the outcome of every
// lo~hi range it evaluates.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceRoller struct {
	mu    sync.Mutex
	faces []int
	idx   int
	calls []int
}

// NewSequenceRoller creates a roller returning faces in order.
// With no faces it always rolls 1.
func NewSequenceRoller(faces ...int) *SequenceRoller {
	return &SequenceRoller{faces: faces}
}

// Roll returns the next face for a die of the given size.
func (r *SequenceRoller) Roll(size int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next(size)
}

// RollN rolls count dice of the given size.
func (r *SequenceRoller) RollN(count, size int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		v, err := r.next(size)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Sizes returns the die size of every roll so far.
func (r *SequenceRoller) Sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

// Reset rewinds the sequence and forgets recorded rolls.
func (r *SequenceRoller) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = 0
	r.calls = nil
}

func (r *SequenceRoller) next(size int) (int, error) {
	if size < 1 {
		return 0, fmt.Errorf("invalid die size %d", size)
	}
	r.calls = append(r.calls, size)
	face := 1
	if len(r.faces) > 0 {
		face = r.faces[r.idx%len(r.faces)]
		r.idx++
	}
	return min(max(face, 1), size), nil
}
