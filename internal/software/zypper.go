package software

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/balsa-asanovic/agama/internal/progress"
)

// StreamExecFunc runs a command and delivers each stdout line to
// onLine as it is produced. Injectable for tests.
type StreamExecFunc func(ctx context.Context, onLine func(string), name string, args ...string) error

// ZypperProvider installs software with zypper against a target root.
type ZypperProvider struct {
	exec StreamExecFunc
}

// NewZypperProvider creates a provider using the real zypper binary.
func NewZypperProvider() *ZypperProvider {
	return &ZypperProvider{exec: streamCommand}
}

// NewZypperProviderWithExec creates a provider with an injected exec
// function (tests).
func NewZypperProviderWithExec(exec StreamExecFunc) *ZypperProvider {
	return &ZypperProvider{exec: exec}
}

func (z *ZypperProvider) ID() string {
	return "zypper"
}

func (z *ZypperProvider) Name() string {
	return "Zypper"
}

func (z *ZypperProvider) Refresh(ctx context.Context) error {
	return z.exec(ctx, nil, "zypper", "--non-interactive", "refresh")
}

func (z *ZypperProvider) InstallPatterns(ctx context.Context, target string, patterns []string, cb progress.Callback) error {
	args := []string{
		"--root", target,
		"--non-interactive",
		"install",
		"--auto-agree-with-licenses",
		"-t", "pattern",
	}
	args = append(args, patterns...)

	onLine := func(line string) {
		if cb == nil {
			return
		}
		if event, ok := parseInstallLine(line); ok {
			cb(event)
		}
	}

	if err := z.exec(ctx, onLine, "zypper", args...); err != nil {
		return fmt.Errorf("zypper install: %w", err)
	}
	return nil
}

// installLineRegex matches zypper's per-package lines, e.g.
// "Installing: kernel-default-6.9.1-1.1.x86_64 (42/618)"
var installLineRegex = regexp.MustCompile(`^(?:Installing: |Retrieving package )(\S+) \((\d+)/(\d+)\)`)

func parseInstallLine(line string) (progress.Event, bool) {
	matches := installLineRegex.FindStringSubmatch(strings.TrimSpace(line))
	if matches == nil {
		return progress.Event{}, false
	}

	current, _ := strconv.Atoi(matches[2])
	total, _ := strconv.Atoi(matches[3])

	event := progress.Event{
		Step:        matches[1],
		CurrentStep: current,
		TotalSteps:  total,
	}
	if total > 0 {
		event.Percent = float64(current) / float64(total) * 100
	}
	return event, true
}

func streamCommand(ctx context.Context, onLine func(string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
