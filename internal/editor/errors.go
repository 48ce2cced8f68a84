package editor

import (
	"errors"
	"fmt"
)

// ErrNotDrawing is returned by Finalize when no session is active.
var ErrNotDrawing = errors.New("editor: no drawing session active")

// ErrMappingUndefined is returned by Finalize before a frame has been observed
// or while the display has no size; vertices cannot be mapped to source space.
var ErrMappingUndefined = errors.New("editor: display or frame size unknown")

// ValidationError reports a finalize attempt with too few vertices.
// The session is left untouched.
type ValidationError struct {
	Vertices int
	Min      int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("at least %d vertices required", e.Min)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
