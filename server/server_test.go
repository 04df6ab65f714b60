package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/silhovette/cellexec/engine"
	"github.com/silhovette/cellexec/evaluator/script"
)

func newTestServer(t *testing.T, maxOutputBytes int) *Server {
	t.Helper()

	mgr, err := engine.NewManager(engine.Config{Factory: script.Factory()})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	srv, err := New(Config{Manager: mgr, MaxOutputBytes: maxOutputBytes, Version: "test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	_, out, err := srv.handleCreateSession(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatalf("create_session failed: %v", err)
	}
	if out.SessionID == "" {
		t.Fatal("create_session returned empty id")
	}
	return out.SessionID
}

func TestNew_RequiresManager(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)

	_, info, err := srv.handleGetSession(context.Background(), nil, SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("get_session failed: %v", err)
	}
	if info.ID != id {
		t.Errorf("Info.ID = %q, want %q", info.ID, id)
	}
	if info.NextCellID != 1 {
		t.Errorf("NextCellID = %d, want 1", info.NextCellID)
	}
}

func TestGetSession_Unknown(t *testing.T) {
	srv := newTestServer(t, 0)

	_, _, err := srv.handleGetSession(context.Background(), nil, SessionParams{SessionID: "nope"})
	if !errors.Is(err, engine.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExecuteCode_StatePersists(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)

	_, out, err := srv.handleExecuteCode(context.Background(), nil, ExecuteCodeParams{
		SessionID: id, Code: "x = 42",
	})
	if err != nil {
		t.Fatalf("execute_code failed: %v", err)
	}
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.Error)
	}

	_, out, err = srv.handleExecuteCode(context.Background(), nil, ExecuteCodeParams{
		SessionID: id, Code: "print(x + 1)",
	})
	if err != nil {
		t.Fatalf("execute_code failed: %v", err)
	}
	if out.Output != "43\n" {
		t.Errorf("Output = %q, want %q", out.Output, "43\n")
	}
}

func TestExecuteCode_FailureIsNotAnError(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)

	_, out, err := srv.handleExecuteCode(context.Background(), nil, ExecuteCodeParams{
		SessionID: id, Code: "print(missing)",
	})
	if err != nil {
		t.Fatalf("failing code must not be a tool error: %v", err)
	}
	if out.Success {
		t.Fatal("expected success=false")
	}
	if out.Error == "" {
		t.Fatal("expected a diagnostic in the result")
	}
}

func TestExecuteCode_OutputTruncated(t *testing.T) {
	srv := newTestServer(t, 16)
	id := createSession(t, srv)

	_, out, err := srv.handleExecuteCode(context.Background(), nil, ExecuteCodeParams{
		SessionID: id, Code: `print("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")`,
	})
	if err != nil {
		t.Fatalf("execute_code failed: %v", err)
	}
	if !strings.HasSuffix(out.Output, engine.TruncationMarker) {
		t.Errorf("Output = %q, want truncation marker suffix", out.Output)
	}
}

func TestCellLifecycle(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)
	ctx := context.Background()

	_, added, err := srv.handleAddCell(ctx, nil, AddCellParams{SessionID: id, Code: "base = 10"})
	if err != nil {
		t.Fatalf("add_cell failed: %v", err)
	}
	if added.CellID != 1 || added.CellCount != 1 {
		t.Errorf("add_cell = %+v", added)
	}

	if _, _, err := srv.handleAddCell(ctx, nil, AddCellParams{SessionID: id, Code: "print(base * 5)"}); err != nil {
		t.Fatalf("add_cell failed: %v", err)
	}

	_, cells, err := srv.handleListCells(ctx, nil, SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("list_cells failed: %v", err)
	}
	if len(cells.Cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(cells.Cells))
	}
	if cells.Cells[0].Executed {
		t.Error("add_cell must not execute the cell")
	}

	_, cell, err := srv.handleGetCell(ctx, nil, CellParams{SessionID: id, CellID: 2})
	if err != nil {
		t.Fatalf("get_cell failed: %v", err)
	}
	if cell.Code != "print(base * 5)" {
		t.Errorf("Cell.Code = %q", cell.Code)
	}

	_, _, err = srv.handleGetCell(ctx, nil, CellParams{SessionID: id, CellID: 99})
	if !errors.Is(err, engine.ErrCellNotFound) {
		t.Errorf("expected ErrCellNotFound, got %v", err)
	}
}

func TestExecuteAllCells(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)
	ctx := context.Background()

	for _, code := range []string{"base = 10", "result = base * 5", "print(result + 100)"} {
		if _, _, err := srv.handleAddCell(ctx, nil, AddCellParams{SessionID: id, Code: code}); err != nil {
			t.Fatalf("add_cell failed: %v", err)
		}
	}

	_, out, err := srv.handleExecuteAllCells(ctx, nil, SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("execute_all_cells failed: %v", err)
	}
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.Error)
	}
	if !strings.Contains(out.Output, "--- Cell 3 ---\n150") {
		t.Errorf("Output = %q, want cell 3 block with 150", out.Output)
	}
}

func TestExecuteAllCells_Empty(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)

	_, out, err := srv.handleExecuteAllCells(context.Background(), nil, SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("execute_all_cells failed: %v", err)
	}
	if !out.Success || out.Output != "no cells to execute" {
		t.Errorf("result = %+v", out)
	}
}

func TestExecuteCellByID(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)
	ctx := context.Background()

	if _, _, err := srv.handleAddCell(ctx, nil, AddCellParams{SessionID: id, Code: "print(7)"}); err != nil {
		t.Fatalf("add_cell failed: %v", err)
	}

	_, out, err := srv.handleExecuteCell(ctx, nil, CellParams{SessionID: id, CellID: 1})
	if err != nil {
		t.Fatalf("execute_cell failed: %v", err)
	}
	if out.Output != "7\n" {
		t.Errorf("Output = %q, want %q", out.Output, "7\n")
	}
}

func TestExecutionStatus(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)
	ctx := context.Background()

	if _, _, err := srv.handleAddCell(ctx, nil, AddCellParams{SessionID: id, Code: "x = 1"}); err != nil {
		t.Fatalf("add_cell failed: %v", err)
	}
	if _, _, err := srv.handleExecuteCell(ctx, nil, CellParams{SessionID: id, CellID: 1}); err != nil {
		t.Fatalf("execute_cell failed: %v", err)
	}

	_, status, err := srv.handleExecutionStatus(ctx, nil, SessionParams{SessionID: id})
	if err != nil {
		t.Fatalf("execution_status failed: %v", err)
	}
	if status.TotalCells != 1 || status.ExecutedCells != 1 {
		t.Errorf("status = %+v", status)
	}
	if len(status.BindingNames) != 1 || status.BindingNames[0] != "x" {
		t.Errorf("BindingNames = %v", status.BindingNames)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, 0)
	id := createSession(t, srv)
	ctx := context.Background()

	if _, _, err := srv.handleDeleteSession(ctx, nil, SessionParams{SessionID: id}); err != nil {
		t.Fatalf("delete_session failed: %v", err)
	}

	_, _, err := srv.handleExecuteCode(ctx, nil, ExecuteCodeParams{SessionID: id, Code: "x = 1"})
	if !errors.Is(err, engine.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}

	_, _, err = srv.handleDeleteSession(ctx, nil, SessionParams{SessionID: id})
	if !errors.Is(err, engine.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 0)
	createSession(t, srv)
	createSession(t, srv)

	_, out, err := srv.handleHealth(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if out.Status != "healthy" || out.ActiveSessions != 2 {
		t.Errorf("health = %+v", out)
	}
}
