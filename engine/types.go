package engine

import "time"

// Cell is a named, ordered unit of code belonging to a session. Cells are
// appended, never reordered, and their code is immutable once created.
type Cell struct {
	// ID is the cell identifier, unique within its owning session and
	// assigned at append time, starting at 1.
	ID int `json:"id"`

	// Code is the source text to evaluate.
	Code string `json:"code"`

	// CreatedAt is the time the cell was appended.
	CreatedAt time.Time `json:"createdAt"`

	// Executed reports whether the cell has ever been run.
	Executed bool `json:"executed"`

	// LastResult is the outcome of the most recent execution of this
	// cell. Nil until the cell first runs.
	LastResult *Result `json:"lastResult,omitempty"`
}

// Result contains the outcome of an execution operation.
type Result struct {
	// Success reports whether the code ran to completion. For ExecuteAll
	// it is true only if every executed cell succeeded.
	Success bool `json:"success"`

	// Output is the captured textual output. For ExecuteAll it is the
	// ordered concatenation of each cell's output.
	Output string `json:"output"`

	// Error carries a human-readable diagnostic when Success is false.
	Error string `json:"error,omitempty"`

	// DurationMs is the total execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// ExecuteParams specifies the parameters for executing a single snippet.
type ExecuteParams struct {
	// Code is the source text to execute.
	Code string `json:"code"`

	// Timeout overrides the manager's default execution timeout for this
	// call. Zero means use the default.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// SessionInfo is a read-only snapshot of a session's identity and shape.
type SessionInfo struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// CreatedAt is the session creation time.
	CreatedAt time.Time `json:"createdAt"`

	// CellCount is the number of cells appended so far.
	CellCount int `json:"cellCount"`

	// NextCellID is the id the next appended cell will receive.
	NextCellID int `json:"nextCellId"`

	// BindingNames lists the names currently bound in the session,
	// sorted. Values are never exposed.
	BindingNames []string `json:"bindingNames"`
}

// CellStatus summarizes one cell's execution state.
type CellStatus struct {
	// CellID is the cell identifier.
	CellID int `json:"cellId"`

	// Executed reports whether the cell has ever been run.
	Executed bool `json:"executed"`

	// ResultPreview is the cell's last output, truncated for display.
	// Empty if the cell never ran.
	ResultPreview string `json:"resultPreview,omitempty"`
}

// SessionStatus summarizes the execution state of every cell in a session.
type SessionStatus struct {
	// SessionID is the session identifier.
	SessionID string `json:"sessionId"`

	// TotalCells is the number of cells in the session.
	TotalCells int `json:"totalCells"`

	// ExecutedCells is the number of cells that have run at least once.
	ExecutedCells int `json:"executedCells"`

	// BindingNames lists the names currently bound in the session, sorted.
	BindingNames []string `json:"bindingNames"`

	// Cells holds the per-cell status in insertion order.
	Cells []CellStatus `json:"cells"`
}
