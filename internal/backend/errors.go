package backend

import (
	"errors"
	"fmt"
)

// Automation error taxonomy. Backends wrap these with fmt.Errorf("%w: ...")
// so callers can classify with errors.Is while still getting a descriptive
// message for status text.
var (
	// ErrAppNotRunning: the vendor application's process could not be found
	// and could not be launched within the bounded wait.
	ErrAppNotRunning = errors.New("vendor application is not running")

	// ErrWindowNotFound: the process exists but no usable window appeared.
	ErrWindowNotFound = errors.New("vendor application window not found")

	// ErrControlNotFound: a named slider/checkbox could not be located,
	// usually because the app is showing the wrong pane.
	ErrControlNotFound = errors.New("control not found in vendor window")

	// ErrTimeout: an operation exceeded its allotted bound.
	ErrTimeout = errors.New("automation call timed out")

	// ErrNotConnected: an operation was attempted while disconnected.
	ErrNotConnected = errors.New("backend is not connected")

	// ErrNotImplemented: the backend does not implement this operation.
	ErrNotImplemented = errors.New("not implemented by this backend")
)

// ScriptError carries the raw diagnostic output of a failed scripting call.
type ScriptError struct {
	Output string
	Err    error
}

func (e *ScriptError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("automation script failed: %s", e.Output)
	}
	return fmt.Sprintf("automation script failed: %v", e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
