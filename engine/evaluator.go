package engine

import "context"

// Evaluation is the outcome of evaluating one code unit.
type Evaluation struct {
	// Output is the captured textual output produced by the code.
	Output string

	// Success reports whether the code ran to completion.
	Success bool

	// Error carries a human-readable diagnostic when Success is false.
	Error string
}

// Evaluator is the pluggable capability that runs a code unit against a
// session's bindings. Implementations are responsible for interpreting the
// code in their target language.
//
// The Evaluator should:
//   - Execute the code with the given bindings as its namespace
//   - Mutate bindings in place, even when execution fails partway through
//   - Capture textual output produced during execution
//   - Report failing user code via Evaluation.Success=false, never as an error
//
// Contract:
// - Concurrency: a single instance is only ever called from one session,
//   which serializes its calls; cross-instance isolation is the
//   implementation's responsibility (e.g. one interpreter per instance).
// - Context: must honor cancellation/deadlines and return ctx.Err() when the
//   deadline fires; forceful interruption of a runaway evaluation beyond
//   that is implementation-defined.
// - Errors: the error return is reserved for capability faults (interpreter
//   process died, protocol failure); failing user code is normal-path data.
// - Ownership: bindings remain owned by the calling session.
type Evaluator interface {
	// Evaluate runs one code unit against the bindings and returns the
	// captured output and success state.
	Evaluate(ctx context.Context, code string, bindings Bindings) (Evaluation, error)
}

// Factory creates the Evaluator instance backing one session. It is called
// once per CreateSession; if the returned Evaluator implements io.Closer it
// is closed when the session closes.
type Factory func(sessionID string) (Evaluator, error)
