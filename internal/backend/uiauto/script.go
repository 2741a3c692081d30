package uiauto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"faderkey.app/internal/backend"
)

// ScriptRunner executes one script body against the OS scripting bridge and
// returns its stdout. Injected so tests can substitute a fake, the same way
// the backend factory injects platform checks.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// OsascriptRunner runs AppleScript bodies through the osascript binary.
// Each call is wrapped in a deadline because osascript has no native timeout
// and a hung System Events query would otherwise block the backend forever.
type OsascriptRunner struct {
	Timeout time.Duration
}

// NewOsascriptRunner creates a runner with the given per-call timeout.
func NewOsascriptRunner(timeout time.Duration) *OsascriptRunner {
	return &OsascriptRunner{Timeout: timeout}
}

// Run executes the script and returns trimmed stdout. A non-zero exit is
// wrapped into a ScriptError carrying stderr; a deadline hit maps to
// ErrTimeout.
func (r *OsascriptRunner) Run(ctx context.Context, script string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "osascript", "-e", script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			slog.Error("osascript call timed out", "elapsed_ms", elapsed.Milliseconds())
			return "", fmt.Errorf("%w after %s", backend.ErrTimeout, elapsed.Round(time.Millisecond))
		}
		diag := strings.TrimSpace(stderr.String())
		slog.Error("osascript call failed", "error", err, "stderr", diag)
		return "", &backend.ScriptError{Output: diag, Err: err}
	}

	out := strings.TrimSpace(stdout.String())
	slog.Debug("osascript call completed", "elapsed_ms", elapsed.Milliseconds(), "output", out)
	return out, nil
}

// IsAutomationError reports whether err came out of the scripting bridge
// itself rather than from readiness or connectivity checks.
func IsAutomationError(err error) bool {
	var se *backend.ScriptError
	return errors.As(err, &se)
}
