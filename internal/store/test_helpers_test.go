package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestChange builds a Pyramidal change with the given seq.
func createTestChange(seq int64, id string, prev, next ir.QualityState) ir.Change {
	return ir.Change{
		Seq:       seq,
		QualityID: id,
		Op:        ir.OpAdd,
		Previous:  prev,
		New:       next,
		Created:   prev == nil,
	}
}

var fixedIDs = WithIDGenerator(testutil.NewFixedIDGenerator("char-1"))
