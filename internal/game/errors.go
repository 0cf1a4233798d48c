package game

import (
	"errors"
	"fmt"
)

// Sentinel lookup failures, surfaced synchronously to callers.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")
)

// ValidationError reports a bad or missing configuration field. It is
// raised before any session object is created.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "invalid config: " + e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ActionMismatchError rejects a submission that targets the wrong turn,
// player, or side. The pending slot is left untouched.
type ActionMismatchError struct {
	Reason string
}

func (e *ActionMismatchError) Error() string { return "action rejected: " + e.Reason }

func mismatchf(format string, args ...any) error {
	return &ActionMismatchError{Reason: fmt.Sprintf(format, args...)}
}

// InitializationError wraps an engine construction failure. The session
// manager treats it as session-creation failure; no partial session is
// registered.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string { return "engine initialization failed: " + e.Err.Error() }
func (e *InitializationError) Unwrap() error { return e.Err }
