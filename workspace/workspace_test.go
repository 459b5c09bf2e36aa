/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return ws
}

func TestResolveRejectsEscapes(t *testing.T) {
	ws := testWorkspace(t)

	for _, tc := range []string{
		"..",
		"../outside.txt",
		"a/../../outside.txt",
		"a/b/../../../etc/passwd",
		"/etc/passwd",
	} {
		t.Run(tc, func(t *testing.T) {
			if _, err := ws.Resolve(tc); !errors.Is(err, ErrPathEscape) {
				t.Errorf("Resolve(%q) = %v, want ErrPathEscape", tc, err)
			}
		})
	}
}

func TestResolveAllowsInsidePaths(t *testing.T) {
	ws := testWorkspace(t)

	for _, tc := range []string{".", "", "main.go", "pkg/util/util.go", "a/./b", "a/b/../c"} {
		t.Run(tc, func(t *testing.T) {
			abs, err := ws.Resolve(tc)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tc, err)
			}
			if !ws.contains(abs) {
				t.Errorf("Resolve(%q) = %q, outside root %q", tc, abs, ws.Root())
			}
		})
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	ws := testWorkspace(t)

	if err := os.Symlink(outside, filepath.Join(ws.Root(), "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := ws.Resolve("link/secret.txt"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("Resolve through symlink = %v, want ErrPathEscape", err)
	}
	if _, err := ws.Resolve("link"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("Resolve of symlink itself = %v, want ErrPathEscape", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	const content = "print('hi')\n"
	if err := ws.WriteFile(ctx, "hello.py", content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ws.ReadFile(ctx, "hello.py")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != content {
		t.Errorf("ReadFile = %q, want %q", got, content)
	}

	// Reads are idempotent on an unmodified file.
	again, err := ws.ReadFile(ctx, "hello.py")
	if err != nil {
		t.Fatalf("second ReadFile: %v", err)
	}
	if again != got {
		t.Errorf("second ReadFile = %q, want %q", again, got)
	}

	if err := ws.DeleteFile(ctx, "hello.py"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := ws.ReadFile(ctx, "hello.py"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile after delete = %v, want not-exist", err)
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	if err := ws.WriteFile(ctx, "deeply/nested/dir/file.txt", "x", 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ws.ReadFile(ctx, "deeply/nested/dir/file.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "x" {
		t.Errorf("ReadFile = %q, want %q", got, "x")
	}
}

func TestDeleteFileRefusesDirectories(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	if err := os.MkdirAll(filepath.Join(ws.Root(), "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ws.DeleteFile(ctx, "pkg"); err == nil {
		t.Error("DeleteFile on a directory should fail")
	}
}

func TestListDirectory(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t)

	for _, f := range []string{"b.go", "a.go", "sub/c.go", ".hidden"} {
		if err := ws.WriteFile(ctx, f, "", 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ws.ListDirectory(ctx, ".")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	want := []string{"a.go", "b.go", "sub/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListDirectory mismatch (-want +got):\n%s", diff)
	}

	if _, err := ws.ListDirectory(ctx, "nope"); err == nil {
		t.Error("ListDirectory on missing dir should fail")
	}
}
