/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Match is one line hit from a workspace search.
type Match struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

const (
	searchConcurrency = 8
	// Files larger than this are skipped rather than scanned; generated
	// artifacts drown out useful matches and blow up tool output.
	maxSearchFileSize = 1 << 20
	maxLineLength     = 1 << 16
)

// Search scans the workspace for lines matching the regular expression.
// glob filters by file basename ("*.go"); "" or "*" matches everything.
// Results are sorted by path then line and capped by policy; the bool
// return reports whether the cap truncated the result set.
func (ws *Workspace) Search(ctx context.Context, pattern, glob string) ([]Match, bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, fmt.Errorf("compiling pattern: %w", err)
	}
	if glob == "" {
		glob = "*"
	}
	if _, err := filepath.Match(glob, "probe"); err != nil {
		return nil, false, fmt.Errorf("invalid glob %q: %w", glob, err)
	}

	var files []string
	err = filepath.WalkDir(ws.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != ws.root && (ws.policy.skips(name) || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if ok, _ := filepath.Match(glob, name); !ok {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxSearchFileSize {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("walking workspace: %w", err)
	}

	var (
		mu      sync.Mutex
		matches []Match
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found, err := scanFile(path, re)
			if err != nil {
				// Unreadable or binary files are skipped, not fatal.
				return nil
			}
			if len(found) == 0 {
				return nil
			}
			rel, err := filepath.Rel(ws.root, path)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, m := range found {
				m.Path = filepath.ToSlash(rel)
				matches = append(matches, m)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Line < matches[j].Line
	})

	truncated := false
	if limit := ws.policy.MaxSearchMatches; len(matches) > limit {
		matches = matches[:limit]
		truncated = true
	}
	return matches, truncated, nil
}

func scanFile(path string, re *regexp.Regexp) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.ContainsRune(text, '\x00') {
			// Binary file; bail out of it entirely.
			return nil, nil
		}
		if re.MatchString(text) {
			out = append(out, Match{Line: line, Content: strings.TrimSpace(text)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
