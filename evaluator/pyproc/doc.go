// Package pyproc provides an Evaluator backed by one persistent Python
// interpreter process per instance. Because the engine creates one evaluator
// per session, each session gets its own interpreter and its own namespace:
// isolation between sessions is a process boundary, not a convention.
//
// The evaluator and its runner speak newline-delimited JSON over the
// process's stdin/stdout: one request per line carrying an id and the code
// to execute, one response per line carrying the captured output, success
// state, diagnostic, and a snapshot of the namespace binding names. Requests
// are correlated by id, so a response that arrives after its caller gave up
// (for example on timeout) is discarded instead of answering the next call.
//
// The runner exec()s each code unit against a persistent namespace dict,
// capturing stdout and stderr. A raising snippet reports success=false with
// a short "ExceptionType: message" diagnostic; bindings made before the
// raise stay in the namespace. Capability faults (the process exiting,
// undecodable responses) surface as errors from Evaluate.
package pyproc
