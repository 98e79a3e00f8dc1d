// Package engine runs experiments through an external FDTD driver process.
//
// The driver receives one sim.Experiment as JSON on stdin, runs the empty and
// the structured simulation, and prints sim.FluxData as JSON on stdout.
// Anything it writes to stderr is forwarded to the debug log.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
)

// stderrTailBytes bounds the driver output kept for error reports.
const stderrTailBytes = 4096

// waitDelay bounds how long a killed driver may hold its output pipes open.
const waitDelay = 2 * time.Second

// ExitError reports a driver that exited unsuccessfully.
type ExitError struct {
	Command string
	Code    int
	Stderr  string // last lines of the driver's stderr
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("engine %q exited with code %d", e.Command, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exec is a sim.Engine backed by a driver command. Safe for concurrent use;
// every call starts its own process.
type Exec struct {
	cfg sim.EngineConfig
}

// New validates cfg and returns an Exec engine.
func New(cfg sim.EngineConfig) (*Exec, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("engine command is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("engine timeout must be non-negative, got %s", cfg.Timeout)
	}
	return &Exec{cfg: cfg}, nil
}

// Simulate runs the driver once for exp.
func (e *Exec) Simulate(ctx context.Context, exp *sim.Experiment) (*sim.FluxData, error) {
	input, err := json.Marshal(exp)
	if err != nil {
		return nil, fmt.Errorf("encoding experiment %s: %w", exp.Prefix, err)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	name := strings.Join(e.cfg.Command, " ")
	cmd := exec.CommandContext(ctx, e.cfg.Command[0], e.cfg.Command[1:]...)
	cmd.Dir = e.cfg.WorkDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.WaitDelay = waitDelay
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr := newLogWriter(logrus.WithField("prefix", exp.Prefix))
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	stderr.Flush()
	logrus.Debugf("engine finished %s in %s", exp.Prefix, time.Since(start))

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("engine %q on %s: %w", name, exp.Prefix, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &ExitError{Command: name, Code: exitErr.ExitCode(), Stderr: stderr.Tail(), Err: runErr}
		}
		return nil, fmt.Errorf("starting engine %q: %w", name, runErr)
	}

	var data sim.FluxData
	if err := json.Unmarshal(stdout.Bytes(), &data); err != nil {
		return nil, fmt.Errorf("decoding engine output for %s: %w", exp.Prefix, err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("engine output for %s: %w", exp.Prefix, err)
	}
	return &data, nil
}

// logWriter forwards complete lines to a logger and keeps a bounded tail.
type logWriter struct {
	mu      sync.Mutex
	entry   *logrus.Entry
	partial []byte
	tail    []byte
}

func newLogWriter(entry *logrus.Entry) *logWriter {
	return &logWriter{entry: entry}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tail = append(w.tail, p...)
	if over := len(w.tail) - stderrTailBytes; over > 0 {
		w.tail = w.tail[over:]
	}

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.entry.Debug(string(bytes.TrimRight(w.partial[:i], "\r")))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

// Flush logs any unterminated last line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.entry.Debug(string(w.partial))
		w.partial = w.partial[:0]
	}
}

// Tail returns the last bytes written, trimmed of surrounding whitespace.
func (w *logWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(string(w.tail))
}
