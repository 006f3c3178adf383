package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("char-123")

	assert.Equal(t, "char-123", gen.Generate())
	assert.Equal(t, "char-123", gen.Generate())
}

func TestFixedIDGenerator_EmptyDefault(t *testing.T) {
	assert.Equal(t, "test-character", NewFixedIDGenerator("").Generate())
}
