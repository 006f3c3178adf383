package store

import (
	"errors"

	"github.com/roach88/storylet/internal/ir"
)

// Character is one persisted character document.
type Character struct {
	ID        string
	Name      string
	Qualities ir.PlayerQualities
	Equipment ir.Equipment

	// Version increments on every successful save.
	Version int64

	// LastSeq is the highest change seq recorded for the character.
	LastSeq int64
}

var (
	// ErrNotFound is returned when no character has the requested id.
	ErrNotFound = errors.New("character not found")

	// ErrVersionConflict is returned when a save's expected version no
	// longer matches the stored one.
	ErrVersionConflict = errors.New("character version conflict")
)
