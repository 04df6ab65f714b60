package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/silhovette/cellexec/engine"
)

// Config configures the MCP façade.
type Config struct {
	// Manager is the session manager the tools operate on. Required.
	Manager *engine.Manager

	// MaxOutputBytes caps the output embedded in tool results. Longer
	// output is truncated with a marker. Zero disables truncation.
	MaxOutputBytes int

	// Name and Version identify the server to MCP clients. Defaults are
	// "cellexec" and "dev".
	Name    string
	Version string

	// Logger receives request-level diagnostics. Defaults to NopLogger.
	Logger engine.Logger
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c.Manager == nil {
		return fmt.Errorf("%w: Manager is required", engine.ErrConfiguration)
	}
	if c.MaxOutputBytes < 0 {
		return fmt.Errorf("%w: MaxOutputBytes must be >= 0", engine.ErrConfiguration)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "cellexec"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Logger == nil {
		c.Logger = engine.NopLogger{}
	}
}

// Server bridges MCP tool calls to the engine.
type Server struct {
	cfg Config
	mcp *mcp.Server
}

// New creates a Server and registers all tools.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	s := &Server{
		cfg: cfg,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_session",
		Description: "Create a new execution session with its own variable state.",
	}, s.handleCreateSession)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions.",
	}, s.handleListSessions)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_session",
		Description: "Get identity and shape of one session.",
	}, s.handleGetSession)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_session",
		Description: "Close a session and release its resources.",
	}, s.handleDeleteSession)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "execute_code",
		Description: "Execute a code snippet in a session. Variables persist across calls.",
	}, s.handleExecuteCode)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_cell",
		Description: "Append a code cell to a session without executing it.",
	}, s.handleAddCell)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_cells",
		Description: "List the cells of a session in insertion order.",
	}, s.handleListCells)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_cell",
		Description: "Get one cell of a session by id.",
	}, s.handleGetCell)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "execute_all_cells",
		Description: "Execute every cell of a session in order, halting on the first failure.",
	}, s.handleExecuteAllCells)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "execute_cell",
		Description: "Execute a single cell of a session by id.",
	}, s.handleExecuteCell)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "execution_status",
		Description: "Summarize the execution state of every cell in a session.",
	}, s.handleExecutionStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "health",
		Description: "Report server health and the active session count.",
	}, s.handleHealth)
}

// Run serves MCP over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.cfg.Logger.Logf("mcp server %s %s listening on stdio", s.cfg.Name, s.cfg.Version)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
