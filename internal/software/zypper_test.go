package software

import (
	"context"
	"strings"
	"testing"

	"github.com/balsa-asanovic/agama/internal/progress"
)

func TestParseInstallLine(t *testing.T) {
	cases := []struct {
		line    string
		ok      bool
		current int
		total   int
	}{
		{"Installing: kernel-default-6.9.1-1.1.x86_64 (42/618)", true, 42, 618},
		{"Retrieving package bash-5.2-1.1.x86_64 (1/618)", true, 1, 618},
		{"Loading repository data...", false, 0, 0},
		{"  Installing: glibc-2.39-2.1.x86_64 (3/10)", true, 3, 10},
		{"Checking for file conflicts: ....[done]", false, 0, 0},
	}

	for _, tc := range cases {
		event, ok := parseInstallLine(tc.line)
		if ok != tc.ok {
			t.Fatalf("parseInstallLine(%q) ok = %v, want %v", tc.line, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if event.CurrentStep != tc.current || event.TotalSteps != tc.total {
			t.Fatalf("parseInstallLine(%q) = %d/%d, want %d/%d",
				tc.line, event.CurrentStep, event.TotalSteps, tc.current, tc.total)
		}
		if event.Percent <= 0 {
			t.Fatalf("expected percent > 0 for %q", tc.line)
		}
	}
}

func TestInstallPatternsStreamsProgress(t *testing.T) {
	output := []string{
		"Loading repository data...",
		"Retrieving package bash-5.2-1.1.x86_64 (1/3)",
		"Installing: bash-5.2-1.1.x86_64 (2/3)",
		"Installing: kernel-default-6.9.1-1.1.x86_64 (3/3)",
	}

	var gotArgs []string
	exec := func(ctx context.Context, onLine func(string), name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		for _, line := range output {
			onLine(line)
		}
		return nil
	}

	var events []progress.Event
	provider := NewZypperProviderWithExec(exec)
	err := provider.InstallPatterns(context.Background(), "/mnt", []string{"base"}, func(e progress.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd := strings.Join(gotArgs, " ")
	for _, want := range []string{"zypper", "--root /mnt", "--non-interactive", "-t pattern base"} {
		if !strings.Contains(cmd, want) {
			t.Fatalf("command %q missing %q", cmd, want)
		}
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 progress events, got %d", len(events))
	}
	if events[2].TotalSteps != 3 || events[2].Percent != 100 {
		t.Fatalf("unexpected final event: %+v", events[2])
	}
}
