package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/balsa-asanovic/agama/internal/logging"
)

var log = logging.L("executor")

const (
	// DefaultTimeout bounds a single external command.
	DefaultTimeout = 10 * time.Minute

	// MaxOutputSize is the maximum size of stdout/stderr to capture.
	MaxOutputSize = 1024 * 1024 // 1MB
)

// Output captures the result of an external command.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes external commands. Storage, software and bootloader
// code depend on this interface so tests can substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
	// RunInTarget executes the command chrooted into the installation
	// target mount point.
	RunInTarget(ctx context.Context, target, name string, args ...string) (Output, error)
}

// SystemRunner runs commands on the host with output capture and timeouts.
type SystemRunner struct {
	timeout time.Duration
}

// New creates a SystemRunner with the default timeout.
func New() *SystemRunner {
	return &SystemRunner{timeout: DefaultTimeout}
}

// NewWithTimeout creates a SystemRunner with a custom per-command timeout.
func NewWithTimeout(timeout time.Duration) *SystemRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SystemRunner{timeout: timeout}
}

func (r *SystemRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	return r.run(ctx, name, args)
}

func (r *SystemRunner) RunInTarget(ctx context.Context, target, name string, args ...string) (Output, error) {
	chrootArgs := append([]string{target, name}, args...)
	return r.run(ctx, "chroot", chrootArgs)
}

func (r *SystemRunner) run(ctx context.Context, name string, args []string) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	log.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: MaxOutputSize}
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: MaxOutputSize}

	err := cmd.Run()

	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
		}
		if ctx.Err() == context.DeadlineExceeded {
			return out, fmt.Errorf("%s timed out after %s", name, r.timeout)
		}
		return out, fmt.Errorf("%s failed: %w: %s", name, err, firstLine(out.Stderr))
	}

	log.Debug("command finished", "cmd", name, "durationMs", out.Duration.Milliseconds())
	return out, nil
}

// limitedWriter discards bytes beyond limit so runaway command output
// cannot exhaust memory.
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
