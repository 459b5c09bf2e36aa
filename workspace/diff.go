/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

const diffTimeout = 30 * time.Second

// GitDiff returns the textual diff of all uncommitted changes in the
// checkout, including files the agent created that are not yet tracked.
// Untracked files are registered with intent-to-add first so they show
// up in the diff without staging any content.
func (ws *Workspace) GitDiff(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, diffTimeout)
	defer cancel()

	if out, err := ws.git(ctx, "add", "--intent-to-add", "--all"); err != nil {
		return "", fmt.Errorf("registering untracked files: %v: %s", err, out)
	}

	out, err := ws.git(ctx, "diff")
	if err != nil {
		return "", fmt.Errorf("running git diff: %v: %s", err, out)
	}
	return string(out), nil
}

// git runs a git subcommand rooted at the workspace without consulting
// the command policy; diffs are a core primitive, not model-directed
// execution.
func (ws *Workspace) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = ws.root

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}
