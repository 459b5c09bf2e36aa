/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/waigani/diffparser"

	"github.com/octoforge/octoforge/workspace"
)

type analyzeComplexityArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why you need the complexity breakdown"`
}

// Per-file and per-hunk thresholds above which a change is flagged as
// hard to review.
const (
	largeFileChangedLines = 300
	largeHunkLines        = 80
)

// NewReviewRegistry builds the read-only profile used to assess a pull
// request checked out in ws. prDiff is the unified diff of the PR as
// fetched from the forge; it backs analyze_pr_complexity. The profile
// exposes no mutating capability.
func NewReviewRegistry(ws *workspace.Workspace, prDiff string) *Registry {
	return newRegistry([]Tool{
		readFileTool("read_pr_file", ws),
		searchCodeTool("search_code_in_pr", ws),
		runCommandTool("run_test_command", "Run the project's test command on the pull request branch. A failing exit code is a review finding.", ws),
		analyzeComplexityTool(prDiff),
	})
}

func analyzeComplexityTool(prDiff string) Tool {
	return Tool{
		Def: Definition{
			Name:        "analyze_pr_complexity",
			Description: "Break the pull request diff down per file: additions, deletions, hunk sizes, and flags for changes large enough to deserve extra scrutiny.",
			Schema:      schemaFor[analyzeComplexityArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			if prDiff == "" {
				return nil, errors.New("no diff available for this pull request")
			}
			return analyzeDiff(prDiff)
		},
	}
}

func analyzeDiff(raw string) (map[string]any, error) {
	diff, err := diffparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	var totalAdds, totalDeletes int
	var flags []string
	files := make([]map[string]any, 0, len(diff.Files))

	for _, f := range diff.Files {
		name := f.NewName
		if name == "" {
			name = f.OrigName
		}

		var adds, deletes int
		for _, hunk := range f.Hunks {
			var hunkChanged int
			for _, line := range hunk.WholeRange.Lines {
				switch line.Mode {
				case diffparser.ADDED:
					adds++
					hunkChanged++
				case diffparser.REMOVED:
					deletes++
					hunkChanged++
				}
			}
			if hunkChanged > largeHunkLines {
				flags = append(flags, fmt.Sprintf("%s: hunk with %d changed lines is hard to review in one pass", name, hunkChanged))
			}
		}

		if adds+deletes > largeFileChangedLines {
			flags = append(flags, fmt.Sprintf("%s: %d changed lines in one file", name, adds+deletes))
		}

		totalAdds += adds
		totalDeletes += deletes
		files = append(files, map[string]any{
			"path":      name,
			"additions": adds,
			"deletions": deletes,
			"hunks":     len(f.Hunks),
			"deleted":   f.Mode == diffparser.DELETED,
			"new":       f.Mode == diffparser.NEW,
		})
	}

	return map[string]any{
		"files":      files,
		"file_count": len(files),
		"additions":  totalAdds,
		"deletions":  totalDeletes,
		"complexity": complexityRating(len(files), totalAdds+totalDeletes),
		"flags":      flags,
	}, nil
}

func complexityRating(fileCount, changedLines int) string {
	switch {
	case fileCount > 10 || changedLines > 500:
		return "high"
	case fileCount > 3 || changedLines > 100:
		return "medium"
	default:
		return "low"
	}
}
