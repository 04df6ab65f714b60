package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the process-wide registry of live sessions. It creates, looks
// up, and closes sessions, and enforces the configured capacity cap.
//
// The session table is the only state shared across sessions; every mutation
// of it (insert on create, remove on close) is atomic with respect to
// concurrent create/close/lookup calls.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a new Manager with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}, nil
}

// CreateSession allocates a new session with an empty binding set and empty
// cell sequence, backed by a fresh evaluator instance, and registers it in
// the session table. It fails with ErrSessionLimit when the configured
// capacity cap is reached.
func (m *Manager) CreateSession(_ context.Context) (*Session, error) {
	id := uuid.NewString()

	evaluator, err := m.cfg.Factory(id)
	if err != nil {
		return nil, fmt.Errorf("create evaluator for session %s: %w", id, err)
	}

	s := &Session{
		id:              id,
		createdAt:       time.Now(),
		evaluator:       evaluator,
		defaultTimeout:  m.cfg.DefaultTimeout,
		continueOnError: m.cfg.ContinueOnError,
		logger:          m.cfg.Logger,
		bindings:        make(Bindings),
		nextCellID:      1,
	}

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		_ = s.close()
		return nil, fmt.Errorf("%w: %d active sessions", ErrSessionLimit, m.cfg.MaxSessions)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	m.cfg.Logger.Logf("created session %s", id)
	return s, nil
}

// GetSession resolves a live session by id. It fails with ErrSessionNotFound
// when the id is unknown or the session has been closed.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// CloseSession removes the session from the table and releases its bindings,
// cells, and evaluator. If an execution is in flight the close waits for it
// to complete; it never interrupts a running evaluation.
//
// Closing an unknown or already-closed session fails with
// ErrSessionNotFound: from the caller's view it no longer exists.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	err := s.close()
	m.cfg.Logger.Logf("closed session %s", id)
	return err
}

// ListSessions returns a snapshot of every live session, ordered by
// creation time (ties broken by id) for deterministic output.
func (m *Manager) ListSessions() []SessionInfo {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close shuts down the manager, closing every live session. Intended for
// process teardown.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var firstErr error
	for id, s := range sessions {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close session %s: %w", id, err)
		}
	}
	return firstErr
}
