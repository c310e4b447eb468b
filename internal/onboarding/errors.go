package onboarding

import (
	"errors"
	"fmt"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrWrongState  = errors.New("operation not allowed in the current session state")
	// ErrSubmitInProgress is returned to a submit that raced another one on
	// the same session. It matches ErrWrongState too.
	ErrSubmitInProgress = fmt.Errorf("%w: profile save already in progress", ErrWrongState)
)

// ValidationError reports input rejected before any gateway was called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
