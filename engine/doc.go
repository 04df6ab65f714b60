// Package engine provides session-scoped, stateful code execution: isolated
// sessions that run snippets against a persistent binding set, accumulate
// ordered cells, and replay their full cell history deterministically.
//
// engine sits between a transport facade and a pluggable Evaluator. It owns
// session lifecycle, per-session serialization, cell ordering, and timeout
// enforcement; it never interprets the code it dispatches.
//
// # Architecture
//
// The package defines two main interfaces and two concrete types:
//
//   - [Evaluator]: The pluggable capability that runs one code unit against a
//     session's bindings, mutating them in place.
//
//   - [Logger]: Optional observability hook for session and execution events.
//
//   - [Session]: One execution context plus its ordered cell history. All
//     operations on a session are serialized in arrival order.
//
//   - [Manager]: The process-wide session table. Creates, resolves, and
//     closes sessions, enforcing the configured capacity cap.
//
// # State Model
//
// A session's bindings survive across executions: execution N+1 observes
// every binding produced by executions <= N. Execution is best-effort, not
// transactional: bindings written before a mid-snippet failure persist.
// Bindings are created empty at session creation and discarded at close.
//
// # Execution Limits
//
// Every execution is bounded by a timeout, applied via context deadline.
// When the deadline fires the operation fails with [ErrExecutionTimeout];
// the bindings keep whatever partial state the evaluator produced.
//
// # Replay
//
// ExecuteAll re-runs every cell in insertion order against the session's
// current bindings, carrying mutations from cell to cell. Replay halts at
// the first failing cell unless Config.ContinueOnError is set; cells after
// the failure keep their previous results.
package engine
