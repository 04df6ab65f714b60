package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/silhovette/cellexec/engine"
	"github.com/silhovette/cellexec/tracing"
)

// SessionParams selects a session for tools that operate on one.
type SessionParams struct {
	SessionID string `json:"session_id"`
}

// ExecuteCodeParams carries a snippet to run against a session.
type ExecuteCodeParams struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`

	// TimeoutSeconds overrides the default execution timeout for this
	// call. Zero means use the default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// AddCellParams carries a cell body to append to a session.
type AddCellParams struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// CellParams selects one cell of a session.
type CellParams struct {
	SessionID string `json:"session_id"`
	CellID    int    `json:"cell_id"`
}

// CreateSessionResult reports the identity of a freshly created session.
type CreateSessionResult struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ExecuteResult is the tool-level view of an execution outcome. Success
// false with an error message means the code failed; the call itself
// still succeeded.
type ExecuteResult struct {
	SessionID  string `json:"session_id"`
	Success    bool   `json:"success"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// AddCellResult reports the id assigned to an appended cell.
type AddCellResult struct {
	SessionID string `json:"session_id"`
	CellID    int    `json:"cell_id"`
	CellCount int    `json:"cell_count"`
}

// ListSessionsResult lists every active session.
type ListSessionsResult struct {
	Sessions []engine.SessionInfo `json:"sessions"`
	Count    int                  `json:"count"`
}

// ListCellsResult lists the cells of one session.
type ListCellsResult struct {
	SessionID string        `json:"session_id"`
	Cells     []engine.Cell `json:"cells"`
}

// HealthResult reports liveness and load.
type HealthResult struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Version        string `json:"version"`
}

func (s *Server) handleCreateSession(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, CreateSessionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "server.create_session")
	sess, err := s.cfg.Manager.CreateSession(ctx)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, CreateSessionResult{}, err
	}

	s.cfg.Logger.Logf("created session %s", sess.ID())
	out := CreateSessionResult{SessionID: sess.ID(), CreatedAt: sess.CreatedAt()}
	return textResult(out), out, nil
}

func (s *Server) handleListSessions(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ListSessionsResult, error) {
	infos := s.cfg.Manager.ListSessions()
	out := ListSessionsResult{Sessions: infos, Count: len(infos)}
	return textResult(out), out, nil
}

func (s *Server) handleGetSession(_ context.Context, _ *mcp.CallToolRequest, params SessionParams) (*mcp.CallToolResult, engine.SessionInfo, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, engine.SessionInfo{}, err
	}

	out := sess.Info()
	return textResult(out), out, nil
}

func (s *Server) handleDeleteSession(_ context.Context, _ *mcp.CallToolRequest, params SessionParams) (*mcp.CallToolResult, struct{}, error) {
	if err := s.cfg.Manager.CloseSession(params.SessionID); err != nil {
		return nil, struct{}{}, err
	}

	s.cfg.Logger.Logf("closed session %s", params.SessionID)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("session %s closed", params.SessionID),
		}},
	}, struct{}{}, nil
}

func (s *Server) handleExecuteCode(ctx context.Context, _ *mcp.CallToolRequest, params ExecuteCodeParams) (*mcp.CallToolResult, ExecuteResult, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, ExecuteResult{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "server.execute_code")
	span.WithAttributes(map[string]string{"session.id": params.SessionID})
	res, err := sess.ExecuteSnippet(ctx, engine.ExecuteParams{
		Code:    params.Code,
		Timeout: time.Duration(params.TimeoutSeconds) * time.Second,
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, ExecuteResult{}, err
	}

	out := s.executeResult(params.SessionID, res)
	return textResult(out), out, nil
}

func (s *Server) handleAddCell(_ context.Context, _ *mcp.CallToolRequest, params AddCellParams) (*mcp.CallToolResult, AddCellResult, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, AddCellResult{}, err
	}

	id, err := sess.AddCell(params.Code)
	if err != nil {
		return nil, AddCellResult{}, err
	}

	out := AddCellResult{
		SessionID: params.SessionID,
		CellID:    id,
		CellCount: sess.Info().CellCount,
	}
	return textResult(out), out, nil
}

func (s *Server) handleListCells(_ context.Context, _ *mcp.CallToolRequest, params SessionParams) (*mcp.CallToolResult, ListCellsResult, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, ListCellsResult{}, err
	}

	cells, err := sess.Cells()
	if err != nil {
		return nil, ListCellsResult{}, err
	}

	out := ListCellsResult{SessionID: params.SessionID, Cells: cells}
	return textResult(out), out, nil
}

func (s *Server) handleGetCell(_ context.Context, _ *mcp.CallToolRequest, params CellParams) (*mcp.CallToolResult, engine.Cell, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, engine.Cell{}, err
	}

	cell, err := sess.Cell(params.CellID)
	if err != nil {
		return nil, engine.Cell{}, err
	}
	return textResult(cell), cell, nil
}

func (s *Server) handleExecuteAllCells(ctx context.Context, _ *mcp.CallToolRequest, params SessionParams) (*mcp.CallToolResult, ExecuteResult, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, ExecuteResult{}, err
	}

	if sess.Info().CellCount == 0 {
		out := ExecuteResult{
			SessionID: params.SessionID,
			Success:   true,
			Output:    "no cells to execute",
		}
		return textResult(out), out, nil
	}

	ctx, span := tracing.StartSpan(ctx, "server.execute_all_cells")
	span.WithAttributes(map[string]string{"session.id": params.SessionID})
	res, err := sess.ExecuteAll(ctx)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, ExecuteResult{}, err
	}

	out := s.executeResult(params.SessionID, res)
	return textResult(out), out, nil
}

func (s *Server) handleExecuteCell(ctx context.Context, _ *mcp.CallToolRequest, params CellParams) (*mcp.CallToolResult, ExecuteResult, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, ExecuteResult{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "server.execute_cell")
	span.WithAttributes(map[string]string{
		"session.id": params.SessionID,
		"cell.id":    fmt.Sprintf("%d", params.CellID),
	})
	res, err := sess.ExecuteCell(ctx, params.CellID)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, ExecuteResult{}, err
	}

	out := s.executeResult(params.SessionID, res)
	return textResult(out), out, nil
}

func (s *Server) handleExecutionStatus(_ context.Context, _ *mcp.CallToolRequest, params SessionParams) (*mcp.CallToolResult, engine.SessionStatus, error) {
	sess, err := s.cfg.Manager.GetSession(params.SessionID)
	if err != nil {
		return nil, engine.SessionStatus{}, err
	}

	out := sess.Status()
	return textResult(out), out, nil
}

func (s *Server) handleHealth(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, HealthResult, error) {
	out := HealthResult{
		Status:         "healthy",
		ActiveSessions: s.cfg.Manager.ActiveSessions(),
		Version:        s.cfg.Version,
	}
	return textResult(out), out, nil
}

// executeResult converts an engine result to the tool view, applying the
// configured output cap.
func (s *Server) executeResult(sessionID string, res engine.Result) ExecuteResult {
	return ExecuteResult{
		SessionID:  sessionID,
		Success:    res.Success,
		Output:     engine.TruncateOutput(res.Output, s.cfg.MaxOutputBytes),
		Error:      res.Error,
		DurationMs: res.DurationMs,
	}
}

// textResult mirrors the structured result as JSON text content for
// clients that only read text.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", v))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
