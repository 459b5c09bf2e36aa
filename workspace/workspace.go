/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"
	gogit "github.com/go-git/go-git/v5"
)

// ErrPathEscape is returned when a relative path resolves outside the
// workspace root, whether by traversal segments or through a symlink.
var ErrPathEscape = errors.New("path escapes workspace root")

// Workspace is a confined view over one repository checkout. All file
// and shell operations are rooted at (and rejected outside of) Root.
type Workspace struct {
	root   string
	policy Policy

	// repo is non-nil when the workspace was provisioned by a Manager;
	// commit/push helpers require it.
	repo *gogit.Repository
}

// Open returns a Workspace rooted at dir. The directory must already
// exist; symlinks in dir itself are resolved once so that containment
// checks compare against the real root.
func Open(dir string, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving root symlinks: %w", err)
	}

	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("stating root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", dir)
	}

	ws := &Workspace{
		root:   real,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws, nil
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithPolicy overrides the default sandbox policy.
func WithPolicy(p Policy) Option {
	return func(ws *Workspace) { ws.policy = p }
}

// Root returns the absolute workspace root.
func (ws *Workspace) Root() string { return ws.root }

// Policy returns the active sandbox policy.
func (ws *Workspace) Policy() Policy { return ws.policy }

// Resolve maps a repository-relative path to an absolute path inside the
// root. Absolute inputs, traversal past the root, and symlinks pointing
// outside the root all fail with ErrPathEscape. For paths that do not
// exist yet, the nearest existing ancestor is the one checked for
// symlink escapes so that new files can still be created.
func (ws *Workspace) Resolve(rel string) (string, error) {
	if rel == "" {
		rel = "."
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}

	abs := filepath.Join(ws.root, filepath.Clean(rel))
	if !ws.contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}

	// Walk up to the deepest existing ancestor and resolve its symlinks.
	// The cleaned path can still point outside the root when a component
	// is a symlink to elsewhere.
	anchor := abs
	var suffix []string
	for {
		if _, err := os.Lstat(anchor); err == nil {
			break
		}
		suffix = append(suffix, filepath.Base(anchor))
		parent := filepath.Dir(anchor)
		if parent == anchor {
			break
		}
		anchor = parent
	}

	realAnchor, err := filepath.EvalSymlinks(anchor)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rel, err)
	}

	real := realAnchor
	for i := len(suffix) - 1; i >= 0; i-- {
		real = filepath.Join(real, suffix[i])
	}
	if !ws.contains(real) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}

	return real, nil
}

func (ws *Workspace) contains(abs string) bool {
	if abs == ws.root {
		return true
	}
	return strings.HasPrefix(abs, ws.root+string(filepath.Separator))
}

// ReadFile returns the content of a file in the workspace.
func (ws *Workspace) ReadFile(_ context.Context, rel string) (string, error) {
	abs, err := ws.Resolve(rel)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), nil
}

// WriteFile creates or replaces a file in the workspace, creating parent
// directories as needed.
func (ws *Workspace) WriteFile(ctx context.Context, rel, content string, mode os.FileMode) error {
	abs, err := ws.Resolve(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("creating parent directories for %s: %w", rel, err)
	}

	if err := os.WriteFile(abs, []byte(content), mode); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}

	clog.FromContext(ctx).With("path", rel).With("bytes", len(content)).Debug("Wrote workspace file")
	return nil
}

// DeleteFile removes a file from the workspace.
func (ws *Workspace) DeleteFile(_ context.Context, rel string) error {
	abs, err := ws.Resolve(rel)
	if err != nil {
		return err
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", rel, err)
	}
	if info.IsDir() {
		return fmt.Errorf("deleting %s: is a directory", rel)
	}

	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("deleting %s: %w", rel, err)
	}
	return nil
}

// ListDirectory lists the entries of a directory, directories suffixed
// with "/". Dotfiles are omitted, matching what the agent should see.
func (ws *Workspace) ListDirectory(_ context.Context, rel string) ([]string, error) {
	abs, err := ws.Resolve(rel)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", rel, err)
	}

	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
