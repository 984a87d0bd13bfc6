package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"library-converter/internal/logging"
	"library-converter/internal/metrics"
)

// maxStderr bounds how much of a failing tool's stderr is kept in errors.
const maxStderr = 2048

// Runner executes external programs.
type Runner interface {
	// Run starts name with args, waits at most timeout and returns stdout.
	// A zero timeout means no limit beyond ctx. Failures are *ToolError.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
}

// ErrorKind classifies why a tool invocation failed.
type ErrorKind string

const (
	KindMissing  ErrorKind = "missing"
	KindTimeout  ErrorKind = "timeout"
	KindExit     ErrorKind = "exit"
	KindCanceled ErrorKind = "canceled"
)

// ToolError describes a failed tool invocation.
type ToolError struct {
	Tool     string
	Kind     ErrorKind
	ExitCode int
	Stderr   string
	Timeout  time.Duration
	Err      error
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case KindMissing:
		return fmt.Sprintf("%s not found", e.Tool)
	case KindTimeout:
		return fmt.Sprintf("%s timed out after %ds", e.Tool, int(e.Timeout.Seconds()))
	case KindCanceled:
		return fmt.Sprintf("%s canceled", e.Tool)
	default:
		if e.Stderr != "" {
			return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsKind reports whether any *ToolError in err's tree has the given kind.
// Joined errors are searched in full, not just up to the first ToolError.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*ToolError); ok && te.Kind == kind {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return IsKind(u.Unwrap(), kind)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if IsKind(e, kind) {
				return true
			}
		}
	}
	return false
}

// ExecRunner runs tools with os/exec and tracks live processes so they can
// be killed on shutdown. It is safe for concurrent use.
type ExecRunner struct {
	processes map[*exec.Cmd]string
	processMu sync.Mutex
}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{processes: make(map[*exec.Cmd]string)}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		metrics.ToolInvocationsTotal.WithLabelValues(name, string(KindMissing)).Inc()
		return nil, &ToolError{Tool: name, Kind: KindMissing, Err: err}
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("Running %s %s", name, strings.Join(args, " "))

	r.track(cmd, name)
	defer r.untrack(cmd)

	metrics.ToolsRunning.Inc()
	start := time.Now()
	err := cmd.Run()
	metrics.ToolsRunning.Dec()
	metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.ToolInvocationsTotal.WithLabelValues(name, "success").Inc()
		return stdout.Bytes(), nil
	}

	toolErr := &ToolError{Tool: name, Kind: KindExit, ExitCode: -1, Stderr: tail(stderr.String()), Err: err}
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		toolErr.Kind = KindTimeout
		toolErr.Timeout = timeout
	case ctx.Err() != nil:
		toolErr.Kind = KindCanceled
		toolErr.Err = ctx.Err()
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
	}

	result := string(toolErr.Kind)
	if toolErr.Kind == KindCanceled {
		result = "error"
	}
	metrics.ToolInvocationsTotal.WithLabelValues(name, result).Inc()

	return stdout.Bytes(), toolErr
}

func (r *ExecRunner) track(cmd *exec.Cmd, name string) {
	r.processMu.Lock()
	r.processes[cmd] = name
	r.processMu.Unlock()
}

func (r *ExecRunner) untrack(cmd *exec.Cmd) {
	r.processMu.Lock()
	delete(r.processes, cmd)
	r.processMu.Unlock()
}

// Active returns the number of tool processes currently running.
func (r *ExecRunner) Active() int {
	r.processMu.Lock()
	defer r.processMu.Unlock()
	return len(r.processes)
}

// Cleanup kills all active tool processes.
func (r *ExecRunner) Cleanup() {
	r.processMu.Lock()
	defer r.processMu.Unlock()

	for cmd, name := range r.processes {
		if cmd.Process != nil {
			logging.Info("Killing %s process (pid %d)", name, cmd.Process.Pid)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill %s process: %v", name, err)
			}
		}
	}
}

// tail keeps the last maxStderr bytes of trimmed stderr output.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderr {
		return s
	}
	return "..." + s[len(s)-maxStderr:]
}

// Available reports which of the named tools can be found on PATH.
func Available(names ...string) map[string]bool {
	found := make(map[string]bool, len(names))
	for _, name := range names {
		_, err := exec.LookPath(name)
		found[name] = err == nil
	}
	return found
}
