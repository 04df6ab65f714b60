package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// mockEvaluator implements Evaluator for testing.
type mockEvaluator struct {
	mu sync.Mutex

	// Configurable behavior
	evaluateFn  func(ctx context.Context, code string, bindings Bindings) (Evaluation, error)
	evaluateErr error
	result      Evaluation
	closeErr    error

	// Call tracking
	evaluateCalls []string
	closed        bool
	closeCalls    int
}

func (m *mockEvaluator) Evaluate(ctx context.Context, code string, bindings Bindings) (Evaluation, error) {
	m.mu.Lock()
	m.evaluateCalls = append(m.evaluateCalls, code)
	fn := m.evaluateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, code, bindings)
	}
	if m.evaluateErr != nil {
		return Evaluation{}, m.evaluateErr
	}
	return m.result, nil
}

func (m *mockEvaluator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeCalls++
	return m.closeErr
}

func (m *mockEvaluator) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.evaluateCalls))
	copy(out, m.evaluateCalls)
	return out
}

func (m *mockEvaluator) wasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// fakeEvaluator is a deterministic Evaluator speaking a line-oriented
// command language, so engine tests can exercise state carrying, ordering,
// partial-failure, and timeout semantics without a real interpreter:
//
//	let <name> <int>           bind name to a literal
//	add <dst> <src> <int>      bind dst to src + n
//	mul <dst> <src> <int>      bind dst to src * n
//	emit <text...>             append a line of output
//	emitvar <name>             append a binding's value as output
//	fail <msg...>              stop with Success=false
//	sleep <duration>           block until the duration or ctx deadline
//
// Commands run in order; a failing command leaves bindings made by earlier
// commands in place, mirroring best-effort persistent state.
type fakeEvaluator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, code string, bindings Bindings) (Evaluation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	f.mu.Unlock()

	var out strings.Builder
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "let":
			n, _ := strconv.Atoi(fields[2])
			bindings[fields[1]] = n
		case "add", "mul":
			src, ok := bindings[fields[2]].(int)
			if !ok {
				return Evaluation{Output: out.String(), Success: false,
					Error: fmt.Sprintf("undefined name: %s", fields[2])}, nil
			}
			n, _ := strconv.Atoi(fields[3])
			if fields[0] == "add" {
				bindings[fields[1]] = src + n
			} else {
				bindings[fields[1]] = src * n
			}
		case "emit":
			out.WriteString(strings.Join(fields[1:], " "))
			out.WriteString("\n")
		case "emitvar":
			v, ok := bindings[fields[1]]
			if !ok {
				return Evaluation{Output: out.String(), Success: false,
					Error: fmt.Sprintf("undefined name: %s", fields[1])}, nil
			}
			fmt.Fprintf(&out, "%v\n", v)
		case "fail":
			return Evaluation{Output: out.String(), Success: false,
				Error: strings.Join(fields[1:], " ")}, nil
		case "failif":
			if _, ok := bindings[fields[1]]; ok {
				return Evaluation{Output: out.String(), Success: false,
					Error: fmt.Sprintf("%s is set", fields[1])}, nil
			}
		case "sleep":
			d, _ := time.ParseDuration(fields[1])
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return Evaluation{}, ctx.Err()
			}
		default:
			return Evaluation{Output: out.String(), Success: false,
				Error: fmt.Sprintf("unknown command: %s", fields[0])}, nil
		}
	}
	return Evaluation{Output: out.String(), Success: true}, nil
}

// fakeFactory returns a Factory producing one fakeEvaluator per session.
func fakeFactory() Factory {
	return func(string) (Evaluator, error) {
		return &fakeEvaluator{}, nil
	}
}

// newTestManager builds a Manager over fakeEvaluator sessions.
func newTestManager(t interface{ Fatalf(string, ...any) }, cfg Config) *Manager {
	if cfg.Factory == nil {
		cfg.Factory = fakeFactory()
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}
