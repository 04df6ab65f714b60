// Package server exposes the execution engine over the Model Context
// Protocol. Each engine operation maps to one MCP tool with typed
// parameters and a JSON result, so any MCP client can drive sessions,
// cells, and executions without knowing the engine API.
//
// # Tools
//
// Session lifecycle: create_session, list_sessions, get_session,
// delete_session. Execution: execute_code, execute_cell,
// execute_all_cells. Cell management: add_cell, list_cells, get_cell.
// Introspection: execution_status, health.
//
// Evaluation failures are reported inside tool results with success set
// to false. Only engine faults (unknown session, closed session, limits,
// timeouts) surface as tool errors.
package server
