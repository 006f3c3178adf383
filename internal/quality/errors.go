package quality

import (
	"errors"
	"fmt"

	"github.com/roach88/storylet/internal/ir"
)

// TypeMismatchError reports an operator that cannot apply to a quality's
// kind, such as += on a String quality. It is non-fatal: the statement is
// skipped and the state left untouched.
type TypeMismatchError struct {
	QualityID string
	Kind      ir.Kind
	Op        ir.Op
	Reason    string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s on %s quality %q: %s", e.Op, e.Kind, e.QualityID, e.Reason)
}

// IsTypeMismatch returns true if err is or wraps a *TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}

// ErrInvalidOp is returned for operators outside ir.ValidOps.
var ErrInvalidOp = errors.New("invalid operator")
