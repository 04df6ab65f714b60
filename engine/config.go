package engine

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout is the execution timeout applied when Config.DefaultTimeout
// is zero.
const DefaultTimeout = 30 * time.Second

// Config holds the configuration for a session manager.
type Config struct {
	// Factory creates the Evaluator instance backing each new session.
	// Required.
	Factory Factory

	// DefaultTimeout is the execution timeout applied when a call does
	// not specify its own. If zero, DefaultTimeout (30s) is used.
	DefaultTimeout time.Duration

	// MaxSessions caps the number of concurrently active sessions.
	// Zero means unlimited.
	MaxSessions int

	// ContinueOnError makes ExecuteAll keep running cells after a
	// failure instead of halting at the first failing cell.
	ContinueOnError bool

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Factory == nil {
		missing = append(missing, "Factory")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("%w: MaxSessions must not be negative", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
}
