package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/sidebearing/internal/ir"
)

// ErrUnknownGlyph is matched by errors for edits to glyphs the font lacks.
var ErrUnknownGlyph = errors.New("unknown glyph")

// RuntimeError represents an error detected while applying an edit.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Glyph and Side identify the edited margin, when known.
	Glyph string
	Side  ir.Side

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownGlyph indicates the edited glyph is not in the font.
	ErrCodeUnknownGlyph RuntimeErrorCode = "UNKNOWN_GLYPH"

	// ErrCodeInvalidSide indicates an edit named a side other than left or right.
	ErrCodeInvalidSide RuntimeErrorCode = "INVALID_SIDE"

	// ErrCodeHostWrite indicates the font rejected the direct write.
	ErrCodeHostWrite RuntimeErrorCode = "HOST_WRITE_FAILED"

	// ErrCodeNonFinite indicates rule arithmetic produced an infinite or NaN value.
	ErrCodeNonFinite RuntimeErrorCode = "NON_FINITE_RESULT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.Glyph != "" && e.Side != "":
		return fmt.Sprintf("%s: %s (%s.%s)", e.Code, e.Message, e.Glyph, e.Side)
	case e.Glyph != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Glyph)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsUnknownGlyph returns true if err reports an edit to a missing glyph.
// Uses errors.As to handle wrapped errors.
func IsUnknownGlyph(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnknownGlyph
	}
	return false
}

// NewUnknownGlyphError creates a RuntimeError for a glyph missing from the font.
func NewUnknownGlyphError(glyph string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownGlyph,
		Message: "glyph not in font",
		Glyph:   glyph,
		Err:     ErrUnknownGlyph,
	}
}

// NewInvalidSideError creates a RuntimeError for a side that is not left or right.
func NewInvalidSideError(glyph string, side ir.Side) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidSide,
		Message: fmt.Sprintf("side %q must be left or right", string(side)),
		Glyph:   glyph,
	}
}

// NewHostWriteError wraps a font write failure on the edited glyph.
func NewHostWriteError(glyph string, side ir.Side, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeHostWrite,
		Message: err.Error(),
		Glyph:   glyph,
		Side:    side,
		Err:     err,
	}
}

// NewNonFiniteError reports a rule whose arithmetic left the float64 range.
func NewNonFiniteError(glyph string, side ir.Side, value float64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNonFinite,
		Message: fmt.Sprintf("rule result %v is not finite", value),
		Glyph:   glyph,
		Side:    side,
	}
}
