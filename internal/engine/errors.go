package engine

import (
	"errors"
	"fmt"
)

// EquipError reports a rejected equip or unequip. The Equipment map is left
// unchanged whenever one is returned.
type EquipError struct {
	// Code identifies the rejection category.
	Code EquipErrorCode

	// Slot is the slot that was targeted.
	Slot string

	// QualityID is the quality being equipped, or the occupant being removed.
	QualityID string

	// Message is a human-readable description.
	Message string
}

// EquipErrorCode categorizes equipment rejections.
type EquipErrorCode string

const (
	// ErrCodeUnknownSlot indicates no equipment slot has the given name.
	ErrCodeUnknownSlot EquipErrorCode = "UNKNOWN_SLOT"

	// ErrCodeSlotNotAllowed indicates the quality's definition does not list the slot.
	ErrCodeSlotNotAllowed EquipErrorCode = "SLOT_NOT_ALLOWED"

	// ErrCodeNotOwned indicates the quality's level is below 1.
	ErrCodeNotOwned EquipErrorCode = "NOT_OWNED"

	// ErrCodeCursed indicates the slot holds a cursed quality that cannot be removed.
	ErrCodeCursed EquipErrorCode = "CURSED"
)

// Error implements the error interface.
func (e *EquipError) Error() string {
	if e.QualityID != "" {
		return fmt.Sprintf("%s: %s (slot=%s, quality=%s)", e.Code, e.Message, e.Slot, e.QualityID)
	}
	return fmt.Sprintf("%s: %s (slot=%s)", e.Code, e.Message, e.Slot)
}

// IsEquipError returns true if err is or wraps an *EquipError.
func IsEquipError(err error) bool {
	var ee *EquipError
	return errors.As(err, &ee)
}

// IsCursedError returns true if err is an equip rejection caused by a curse.
// Uses errors.As to handle wrapped errors.
func IsCursedError(err error) bool {
	var ee *EquipError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeCursed
	}
	return false
}

var (
	// ErrUnresolvedTarget is reported when an effect's $. or ${...} target
	// evaluates to an empty quality id.
	ErrUnresolvedTarget = errors.New("effect target did not resolve to a quality")

	// ErrUnknownMacro is reported when an effect list contains a macro with
	// no registered handler.
	ErrUnknownMacro = errors.New("unregistered macro")

	// ErrMacroDepth is reported when macros expand into each other too deeply.
	ErrMacroDepth = errors.New("macro expansion too deep")
)

// StatementError wraps the failure of one statement in an effect list.
// Remaining statements still run.
type StatementError struct {
	Statement string
	Pos       int
	Err       error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %q at %d: %v", e.Statement, e.Pos, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StatementError) Unwrap() error {
	return e.Err
}
