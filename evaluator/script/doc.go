// Package script provides a small in-process Evaluator for a line-oriented
// assignment language: `name = expr` statements, arithmetic over numbers,
// string literals and concatenation, and a print function.
//
// It exists so sessions can run deterministically without an external
// interpreter in tests, examples, and offline tooling. Statements execute
// line by line against the session's bindings, so a failure partway through
// a snippet leaves the bindings made by earlier lines in place, matching the
// engine's best-effort persistence model.
//
// The language is deliberately tiny: no control flow, no functions beyond
// print, no collections. Anything richer belongs in a real interpreter
// behind the same Evaluator interface (see evaluator/pyproc).
package script
