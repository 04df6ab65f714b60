package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// statusPreviewBytes bounds the per-cell result preview in SessionStatus.
const statusPreviewBytes = 100

// Session is one long-lived execution context plus its ordered cell history.
// A session exclusively owns its bindings and its evaluator instance; no
// other component mutates them.
//
// Every operation that touches the bindings acquires the session mutex, so
// concurrent calls on the same session are queued and applied one at a time
// in arrival order. Operations on different sessions proceed in parallel.
type Session struct {
	id        string
	createdAt time.Time
	evaluator Evaluator

	defaultTimeout  time.Duration
	continueOnError bool
	logger          Logger

	mu         sync.Mutex
	closed     bool
	bindings   Bindings
	cells      []*Cell
	nextCellID int
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// ExecuteSnippet runs one code snippet against the session's current
// bindings, in isolation from the cell sequence: the snippet is not appended
// as a cell. Bindings mutated before a runtime failure persist; execution is
// never rolled back.
//
// A timeout in params overrides the manager default for this call. When the
// deadline fires the error wraps ErrExecutionTimeout.
func (s *Session) ExecuteSnippet(ctx context.Context, params ExecuteParams) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrSessionClosed
	}

	res, err := s.evaluate(ctx, params.Code, params.Timeout)
	if err != nil {
		return res, err
	}

	s.logger.Logf("session %s: snippet executed in %dms (success=%t)", s.id, res.DurationMs, res.Success)
	return res, nil
}

// AddCell appends a new cell with the given code to the ordered sequence
// without executing it. It returns the new cell's id.
func (s *Session) AddCell(code string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}

	cell := &Cell{
		ID:        s.nextCellID,
		Code:      code,
		CreatedAt: time.Now(),
	}
	s.cells = append(s.cells, cell)
	s.nextCellID++

	s.logger.Logf("session %s: added cell %d", s.id, cell.ID)
	return cell.ID, nil
}

// ExecuteAll re-executes every cell in insertion order against a
// continuously carried binding set: each cell observes the bindings left by
// the cells before it, starting from the session's current bindings rather
// than a fresh set. Each cell's LastResult is updated as it runs.
//
// The aggregate output concatenates per-cell blocks; Success is true only if
// every cell succeeded. Execution halts at the first failing cell unless the
// manager was configured with ContinueOnError, and cells after the halt keep
// whatever result they had before this pass.
func (s *Session) ExecuteAll(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrSessionClosed
	}

	start := time.Now()
	blocks := make([]string, 0, len(s.cells))
	success := true
	var firstErr string

	for _, cell := range s.cells {
		res, err := s.evaluate(ctx, cell.Code, 0)
		if err != nil {
			// Capability fault or timeout: escalate without touching
			// the cell's recorded result.
			return Result{DurationMs: time.Since(start).Milliseconds()}, err
		}

		cell.Executed = true
		last := res
		cell.LastResult = &last
		blocks = append(blocks, cellBlock(cell.ID, res))

		if !res.Success {
			success = false
			if firstErr == "" {
				firstErr = fmt.Sprintf("cell %d: %s", cell.ID, res.Error)
			}
			if !s.continueOnError {
				break
			}
		}
	}

	out := Result{
		Success:    success,
		Output:     strings.Join(blocks, cellDelimiter),
		Error:      firstErr,
		DurationMs: time.Since(start).Milliseconds(),
	}
	s.logger.Logf("session %s: executed %d/%d cells in %dms (success=%t)",
		s.id, len(blocks), len(s.cells), out.DurationMs, out.Success)
	return out, nil
}

// ExecuteCell executes a single cell by id against the session's current
// bindings and updates the cell's LastResult.
func (s *Session) ExecuteCell(ctx context.Context, cellID int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrSessionClosed
	}

	cell := s.findCell(cellID)
	if cell == nil {
		return Result{}, fmt.Errorf("%w: cell %d in session %s", ErrCellNotFound, cellID, s.id)
	}

	res, err := s.evaluate(ctx, cell.Code, 0)
	if err != nil {
		return res, err
	}

	cell.Executed = true
	last := res
	cell.LastResult = &last

	s.logger.Logf("session %s: executed cell %d in %dms (success=%t)", s.id, cellID, res.DurationMs, res.Success)
	return res, nil
}

// Cell returns a copy of the cell with the given id.
func (s *Session) Cell(cellID int) (Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Cell{}, ErrSessionClosed
	}

	cell := s.findCell(cellID)
	if cell == nil {
		return Cell{}, fmt.Errorf("%w: cell %d in session %s", ErrCellNotFound, cellID, s.id)
	}
	return copyCell(cell), nil
}

// Cells returns defensive copies of all cells in insertion order.
func (s *Session) Cells() ([]Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	out := make([]Cell, len(s.cells))
	for i, cell := range s.cells {
		out[i] = copyCell(cell)
	}
	return out, nil
}

// Info returns a read-only snapshot of the session's identity and shape.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionInfo{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		CellCount:    len(s.cells),
		NextCellID:   s.nextCellID,
		BindingNames: s.bindings.Names(),
	}
}

// Status summarizes the execution state of every cell in the session,
// with result previews bounded for display.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SessionStatus{
		SessionID:    s.id,
		TotalCells:   len(s.cells),
		BindingNames: s.bindings.Names(),
		Cells:        make([]CellStatus, 0, len(s.cells)),
	}
	for _, cell := range s.cells {
		cs := CellStatus{CellID: cell.ID, Executed: cell.Executed}
		if cell.LastResult != nil {
			cs.ResultPreview = previewOutput(cell.LastResult.Output, statusPreviewBytes)
		}
		if cell.Executed {
			status.ExecutedCells++
		}
		status.Cells = append(status.Cells, cs)
	}
	return status
}

// evaluate dispatches one code unit to the evaluator under the configured
// timeout. The caller must hold s.mu.
func (s *Session) evaluate(ctx context.Context, code string, timeout time.Duration) (Result, error) {
	if timeout == 0 {
		timeout = s.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	eval, err := s.evaluator.Evaluate(ctx, code, s.bindings)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{DurationMs: duration},
				fmt.Errorf("%w: evaluation exceeded %v", ErrExecutionTimeout, timeout)
		}
		return Result{DurationMs: duration}, err
	}

	return Result{
		Success:    eval.Success,
		Output:     eval.Output,
		Error:      eval.Error,
		DurationMs: duration,
	}, nil
}

// close marks the session closed and releases its resources. It waits for
// any in-flight execution by acquiring the session mutex: close never
// interrupts a running evaluation.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.bindings = nil
	s.cells = nil

	if closer, ok := s.evaluator.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// findCell returns the cell with the given id, or nil. Caller holds s.mu.
func (s *Session) findCell(cellID int) *Cell {
	for _, cell := range s.cells {
		if cell.ID == cellID {
			return cell
		}
	}
	return nil
}

// copyCell returns a defensive copy of a cell, including its last result.
func copyCell(cell *Cell) Cell {
	out := *cell
	if cell.LastResult != nil {
		last := *cell.LastResult
		out.LastResult = &last
	}
	return out
}
