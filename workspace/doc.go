/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package workspace owns a single on-disk repository checkout and exposes
// the path-confined file, search, and shell primitives that agent tools
// are built on. Every operation resolves its target inside the workspace
// root before any I/O happens; paths that escape the root via traversal
// or symlinks are rejected with ErrPathEscape.
//
// The Manager provisions workspaces by cloning or reusing a checkout per
// repository and serializes access per repository+branch so overlapping
// runs never share a working tree.
package workspace
