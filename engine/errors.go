package engine

import "errors"

// Sentinel errors for error classification.
var (
	// ErrSessionNotFound indicates that a session id is unknown or the
	// session has already been closed.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates an operation attempted on a session
	// handle after the session was closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionLimit indicates that the configured maximum number of
	// concurrently active sessions has been reached.
	ErrSessionLimit = errors.New("session limit reached")

	// ErrCellNotFound indicates that a cell id does not exist in the
	// target session.
	ErrCellNotFound = errors.New("cell not found")

	// ErrExecutionTimeout indicates that the evaluator exceeded the
	// allotted execution time. The session's bindings are left in
	// whatever partial state the evaluator produced.
	ErrExecutionTimeout = errors.New("execution timeout")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)
