/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// FileTree renders the workspace layout as an indented tree down to
// maxDepth levels. Policy skip-dirs and dotfiles are omitted. Depth 1
// shows only the root's entries.
func (ws *Workspace) FileTree(_ context.Context, rel string, maxDepth int) (string, error) {
	abs, err := ws.Resolve(rel)
	if err != nil {
		return "", err
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}

	var sb strings.Builder
	if rel == "" || rel == "." {
		sb.WriteString("./\n")
	} else {
		sb.WriteString(rel + "/\n")
	}
	if err := ws.writeTree(&sb, abs, "", 1, maxDepth); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (ws *Workspace) writeTree(sb *strings.Builder, dir, prefix string, depth, maxDepth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	var kept []os.DirEntry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() && ws.policy.skips(e.Name()) {
			continue
		}
		kept = append(kept, e)
	}
	// Directories first, then lexicographic, mirroring how developers
	// expect a tree listing to read.
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].IsDir() != kept[j].IsDir() {
			return kept[i].IsDir()
		}
		return kept[i].Name() < kept[j].Name()
	})

	for i, e := range kept {
		last := i == len(kept)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		sb.WriteString(prefix + connector + name + "\n")

		if e.IsDir() && depth < maxDepth {
			if err := ws.writeTree(sb, dir+string(os.PathSeparator)+e.Name(), childPrefix, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
