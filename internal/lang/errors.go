package lang

import (
	"errors"
	"fmt"
)

// ParseError reports malformed bracket, macro, metadata or expression syntax.
//
// Fragment is the complete source handed to the parser and Pos is a byte
// offset into it, so nested blocks report positions relative to the outer text.
type ParseError struct {
	Fragment string
	Pos      int
	Message  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s (in %q)", e.Pos, e.Message, e.Fragment)
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func newError(src string, pos int, format string, args ...any) *ParseError {
	return &ParseError{
		Fragment: src,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	}
}
