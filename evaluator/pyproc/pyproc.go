package pyproc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/silhovette/cellexec/engine"
)

// Errors for interpreter process operations.
var (
	// ErrEvaluatorClosed is returned when Evaluate is called after Close.
	ErrEvaluatorClosed = errors.New("evaluator closed")

	// ErrProcessExited is returned when the interpreter process ended
	// while a request was outstanding.
	ErrProcessExited = errors.New("interpreter process exited")
)

// closeGrace is how long Close waits for the runner to exit on its own
// after stdin closes before killing the process.
const closeGrace = 3 * time.Second

// maxResponseBytes bounds a single response line from the runner.
const maxResponseBytes = 8 << 20

// Config configures a Python evaluator.
type Config struct {
	// Python is the interpreter binary. Defaults to "python3".
	Python string

	// Args are extra interpreter arguments, inserted before the runner
	// program.
	Args []string
}

func (c *Config) applyDefaults() {
	if c.Python == "" {
		c.Python = "python3"
	}
}

// Evaluator drives one persistent Python interpreter process. It implements
// engine.Evaluator and io.Closer; the engine closes it with its session.
type Evaluator struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *bytes.Buffer
	responses chan response

	requestID atomic.Uint64
	closed    atomic.Bool
	closeMu   sync.Mutex
	writeMu   sync.Mutex
}

// New starts a Python interpreter process running the session runner.
func New(cfg Config) (*Evaluator, error) {
	cfg.applyDefaults()

	args := append(append([]string{}, cfg.Args...), "-u", "-c", runnerSource)
	cmd := exec.Command(cfg.Python, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdout pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cfg.Python, err)
	}

	e := &Evaluator{
		cmd:       cmd,
		stdin:     stdin,
		stderr:    stderr,
		// Small buffer so a stale response from a timed-out request
		// does not wedge the read loop before the next call drains it.
		responses: make(chan response, 4),
	}
	go e.readLoop(stdout)
	return e, nil
}

// Factory returns an engine.Factory starting one interpreter process per
// session.
func Factory(cfg Config) engine.Factory {
	return func(string) (engine.Evaluator, error) {
		return New(cfg)
	}
}

// Evaluate sends one code unit to the interpreter and waits for its
// response, honoring ctx. On success the bindings map is synchronized to
// the runner's namespace snapshot: new names appear, removed names vanish,
// and values hold the runner's opaque reprs, even when the code failed.
func (e *Evaluator) Evaluate(ctx context.Context, code string, bindings engine.Bindings) (engine.Evaluation, error) {
	if e.closed.Load() {
		return engine.Evaluation{}, ErrEvaluatorClosed
	}

	id := strconv.FormatUint(e.requestID.Add(1), 10)
	data, err := encodeRequest(request{ID: id, Code: code})
	if err != nil {
		return engine.Evaluation{}, fmt.Errorf("encode request: %w", err)
	}

	e.writeMu.Lock()
	_, err = e.stdin.Write(data)
	e.writeMu.Unlock()
	if err != nil {
		return engine.Evaluation{}, fmt.Errorf("%w: %v", ErrProcessExited, err)
	}

	for {
		select {
		case <-ctx.Done():
			return engine.Evaluation{}, ctx.Err()
		case resp, ok := <-e.responses:
			if !ok {
				return engine.Evaluation{}, e.exitError()
			}
			if resp.ID != id {
				// Stale response from a request whose caller timed
				// out; discard and keep waiting.
				continue
			}
			syncBindings(bindings, resp.Bindings)
			return engine.Evaluation{
				Output:  resp.Output,
				Success: resp.Success,
				Error:   resp.Error,
			}, nil
		}
	}
}

// Close shuts the interpreter down by closing its stdin; the runner exits
// on EOF. If it does not exit within a grace period it is killed.
func (e *Evaluator) Close() error {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()

	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = e.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case <-done:
		return nil
	case <-time.After(closeGrace):
		_ = e.cmd.Process.Kill()
		<-done
		return nil
	}
}

// readLoop pumps runner responses into the response channel, closing it
// when the process's stdout ends.
func (e *Evaluator) readLoop(stdout io.Reader) {
	defer close(e.responses)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxResponseBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		resp, err := decodeResponse(line)
		if err != nil {
			// Undecodable output means the protocol is broken;
			// stop and let callers observe the exit.
			return
		}
		e.responses <- resp
	}
}

// exitError describes an unexpected process exit, carrying the tail of the
// interpreter's stderr as diagnostic detail.
func (e *Evaluator) exitError() error {
	detail := strings.TrimSpace(e.stderr.String())
	if detail == "" {
		return ErrProcessExited
	}
	const tail = 500
	if len(detail) > tail {
		detail = detail[len(detail)-tail:]
	}
	return fmt.Errorf("%w: %s", ErrProcessExited, detail)
}

// syncBindings makes the session bindings mirror the runner's namespace
// snapshot.
func syncBindings(bindings engine.Bindings, snapshot map[string]string) {
	for name := range bindings {
		if _, ok := snapshot[name]; !ok {
			delete(bindings, name)
		}
	}
	for name, repr := range snapshot {
		bindings[name] = repr
	}
}
