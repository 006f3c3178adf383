package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/testutil"
)

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(41), resumed.Current())
	assert.Equal(t, int64(42), resumed.Next())
}

func TestClock_StampsChangesAcrossEngines(t *testing.T) {
	defs := testutil.Definitions(testutil.PyramidalDef("gold", nil))

	first := New(Context{Definitions: defs}, WithLogger(testutil.DiscardLogger()))
	changes, errs := first.ApplyEffect("$gold += 3, $gold -= 1")
	require.Empty(t, errs)
	require.Len(t, changes, 2)
	assert.Equal(t, []int64{1, 2}, seqs(changes))

	// A later request resumes from the last stored seq.
	second := New(Context{Definitions: defs, Qualities: first.Qualities()},
		WithLogger(testutil.DiscardLogger()),
		WithClock(NewClockAt(changes[len(changes)-1].Seq)),
	)
	more, errs := second.ApplyEffect("$gold++")
	require.Empty(t, errs)
	assert.Equal(t, []int64{3}, seqs(more))
}

func TestClock_ConcurrentNext(t *testing.T) {
	c := NewClock()
	const workers, calls = 20, 50

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				n := c.Next()
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), c.Current())
}

func seqs(changes []ir.Change) []int64 {
	out := make([]int64, len(changes))
	for i, ch := range changes {
		out[i] = ch.Seq
	}
	return out
}
