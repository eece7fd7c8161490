package script

import "errors"

// Every error below is recoverable at the call boundary: it is returned to
// the invoking agent turn as a tool-call failure, never as a process fault.
var (
	// ErrNotFound is returned when execute is called with an unregistered name.
	ErrNotFound = errors.New("script not found")

	// ErrEmptyName is returned when a script declares a blank name.
	ErrEmptyName = errors.New("script name must not be empty")

	// ErrDuplicate is returned when registering a name that already exists
	// and the duplicate policy is reject.
	ErrDuplicate = errors.New("script already registered")

	// ErrLoad is returned for a malformed script or metadata. Reported per
	// file; a directory load never aborts on it.
	ErrLoad = errors.New("script load failed")

	// ErrInvalidArguments is returned when call arguments fail the declared
	// schema. Rejected before any execution context is created.
	ErrInvalidArguments = errors.New("arguments do not match declared schema")

	// ErrRuntime is returned for an uncaught fault inside the script body,
	// captured and carried as diagnostic text.
	ErrRuntime = errors.New("script runtime error")

	// ErrTimeout is returned when a call exceeds its time or step budget.
	// The execution context is torn down and partial output is discarded.
	ErrTimeout = errors.New("script execution timed out")
)
