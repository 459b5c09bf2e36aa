/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestRunCommandSuccess(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	res, err := ws.RunCommand(ctx, []string{"echo", "hello"}, 0)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(res.Stdout); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
}

func TestRunCommandNonZeroExitIsNotAnError(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	res, err := ws.RunCommand(ctx, []string{"ls", "definitely-not-here"}, 0)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("expected non-zero exit code")
	}
}

func TestRunCommandTimeout(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	policy := DefaultPolicy()
	policy.AllowedCommands = append(policy.AllowedCommands, "sleep")
	ws.policy = policy

	res, err := ws.RunCommand(ctx, []string{"sleep", "10"}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut")
	}
	if res.ExitCode == 0 {
		t.Error("timed-out command should not report exit code 0")
	}
}

func TestRunCommandDenied(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	if _, err := ws.RunCommand(ctx, []string{"rm", "-rf", "/"}, 0); !errors.Is(err, ErrCommandDenied) {
		t.Errorf("RunCommand(rm) = %v, want ErrCommandDenied", err)
	}
	if _, err := ws.RunCommand(ctx, nil, 0); err == nil {
		t.Error("empty argv should fail")
	}
}

func TestRunCommandRunsInRoot(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	if err := ws.WriteFile(ctx, "marker.txt", "", 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := ws.RunCommand(ctx, []string{"ls"}, 0)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if !strings.Contains(res.Stdout, "marker.txt") {
		t.Errorf("ls output %q does not list marker.txt", res.Stdout)
	}
}

func TestTruncateCapsOutput(t *testing.T) {
	got := truncate(strings.Repeat("x", 100), 10)
	if !strings.HasPrefix(got, strings.Repeat("x", 10)) || !strings.Contains(got, "90 bytes truncated") {
		t.Errorf("truncate = %q", got)
	}
}

func TestTruncateKeepsUTF8Valid(t *testing.T) {
	// "héllo": the é is two bytes, and a limit of 2 lands inside it.
	got := truncate("héllo", 2)
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if !strings.HasPrefix(got, "h\n") {
		t.Errorf("truncate = %q, want cut backed off to the rune boundary", got)
	}

	// A limit on a boundary keeps the whole rune.
	got = truncate("héllo", 3)
	if !strings.HasPrefix(got, "hé\n") || !utf8.ValidString(got) {
		t.Errorf("truncate = %q, want full rune kept", got)
	}
}
