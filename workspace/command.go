/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"
)

// ErrCommandDenied is returned when the sandbox policy does not allow
// spawning the requested command.
var ErrCommandDenied = errors.New("command not allowed by workspace policy")

// CommandResult carries the observable outcome of one command. A
// non-zero exit code or a timeout is data for the caller to interpret,
// never an error from RunCommand itself.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// RunCommand executes argv with the workspace root as working directory.
// The command runs under the policy timeout unless a shorter one is
// given. Errors are reserved for refusing to run at all (empty argv,
// denied command); everything that happens after the process starts is
// reported through CommandResult.
func (ws *Workspace) RunCommand(ctx context.Context, argv []string, timeout time.Duration) (CommandResult, error) {
	if len(argv) == 0 {
		return CommandResult{}, errors.New("argv cannot be empty")
	}
	if !ws.policy.Allows(argv[0]) {
		return CommandResult{}, fmt.Errorf("%w: %q", ErrCommandDenied, argv[0])
	}

	if timeout <= 0 || timeout > ws.policy.CommandTimeout {
		timeout = ws.policy.CommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = ws.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := CommandResult{
		Stdout:   truncate(stdout.String(), ws.policy.MaxOutputBytes),
		Stderr:   truncate(stderr.String(), ws.policy.MaxOutputBytes),
		Duration: time.Since(start),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.TimedOut = true
		res.ExitCode = -1
	case runErr == nil:
		res.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Spawn failure (e.g. binary not on PATH). Still a result, so
			// the model can see what went wrong and adjust.
			res.ExitCode = -1
			res.Stderr = truncate(runErr.Error(), ws.policy.MaxOutputBytes)
		}
	}

	clog.FromContext(ctx).With("command", argv[0]).
		With("exit_code", res.ExitCode).
		With("timed_out", res.TimedOut).
		With("duration", res.Duration).
		Info("Workspace command finished")

	return res, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Back off to a rune boundary so the cut never emits invalid UTF-8.
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + fmt.Sprintf("\n... (%d bytes truncated)", len(s)-limit)
}
