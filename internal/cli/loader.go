package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/storylet/internal/compiler"
	"github.com/roach88/storylet/internal/ir"
)

// LoadError represents an error that occurred during content loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadContent compiles the content directory. The returned content holds
// every entry that compiled; errs has one *LoadError per failure.
func LoadContent(dir string) (*ir.Content, []error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("content directory not found: %s", dir)}}
	}

	content, err := compiler.LoadDir(dir)
	if err == nil {
		return content, nil
	}
	if errors.Is(err, compiler.ErrNoContent) {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: err.Error()}}
	}

	var errs []error
	for _, e := range flatten(err) {
		errs = append(errs, convertCompileError(e))
	}
	return content, errs
}

// flatten unpacks an errors.Join tree.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Database error
	ErrCodeWorld       = "E009" // World store error
	ErrCodeConflict    = "E010" // Stale write rejected

	// Content compile errors
	ErrCodeQualityKind  = "E101" // Invalid quality kind
	ErrCodeQualityValue = "E102" // Invalid cap, order or properties
	ErrCodeTitle        = "E103" // Missing storylet title
	ErrCodeBranch       = "E104" // Invalid branch list or id

	// Character errors
	ErrCodeEquip = "E120" // Equip or unequip rejected
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Fields look like "quality.gold.kind" or "storylet.forge.branches[1].id".
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case strings.HasSuffix(field, ".kind"):
		return ErrCodeQualityKind
	case strings.HasSuffix(field, ".cap"), strings.HasSuffix(field, ".order"), strings.Contains(field, ".properties"):
		return ErrCodeQualityValue
	case strings.HasSuffix(field, ".title"):
		return ErrCodeTitle
	case strings.Contains(field, ".branches"):
		return ErrCodeBranch
	default:
		return ErrCodeGeneric
	}
}
