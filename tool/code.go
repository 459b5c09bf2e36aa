/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/octoforge/octoforge/workspace"
)

// Argument shapes for the code profile. The jsonschema tags drive both
// the schema shown to the model and the required-field validation.
type readFileArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why you need to read this file"`
	Path      string `json:"path" jsonschema:"description=Workspace-relative path of the file to read,required"`
}

type listDirectoryArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why you need this listing"`
	Path      string `json:"path,omitempty" jsonschema:"description=Workspace-relative directory (default: repository root)"`
}

type searchCodeArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why you are searching for this pattern"`
	Pattern   string `json:"pattern" jsonschema:"description=Regular expression to search for,required"`
	Glob      string `json:"glob,omitempty" jsonschema:"description=Filename glob to restrict the search (e.g. *.go)"`
}

type fileTreeArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why you need the tree"`
	Path      string `json:"path,omitempty" jsonschema:"description=Subdirectory to start from (default: repository root)"`
	MaxDepth  int    `json:"max_depth,omitempty" jsonschema:"description=Maximum directory depth to display (default 3)"`
}

type createFileArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why this file is needed"`
	Path      string `json:"path" jsonschema:"description=Workspace-relative path of the new file,required"`
	Content   string `json:"content" jsonschema:"description=Full content of the new file,required"`
}

type updateFileArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why this change is needed"`
	Path      string `json:"path" jsonschema:"description=Workspace-relative path of the file to replace,required"`
	Content   string `json:"content" jsonschema:"description=Full replacement content,required"`
}

type deleteFileArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why this file should go away"`
	Path      string `json:"path" jsonschema:"description=Workspace-relative path of the file to delete,required"`
}

type runCommandArgs struct {
	Reasoning      string   `json:"reasoning,omitempty" jsonschema:"description=Why you need to run this command"`
	Command        []string `json:"command" jsonschema:"description=Command and arguments as an array (e.g. [\"go\" \"test\" \"./...\"]),required"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"description=Wall-clock limit in seconds (capped by workspace policy)"`
}

type gitDiffArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Why you need the diff"`
}

// NewCodeRegistry builds the full read/write/run profile used by the
// code agent to implement issues against ws.
func NewCodeRegistry(ws *workspace.Workspace) *Registry {
	return newRegistry([]Tool{
		readFileTool("read_file", ws),
		listDirectoryTool(ws),
		searchCodeTool("search_code", ws),
		fileTreeTool(ws),
		createFileTool(ws),
		updateFileTool(ws),
		deleteFileTool(ws),
		runCommandTool("run_command", "Run an allowlisted command inside the repository and observe its output. Non-zero exit codes are reported back, not fatal.", ws),
		gitDiffTool(ws),
	})
}

func readFileTool(name string, ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        name,
			Description: "Read the full content of a file in the repository.",
			Schema:      schemaFor[readFileArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			path, err := required[string](call, "path")
			if err != nil {
				return nil, err
			}
			content, err := ws.ReadFile(ctx, path)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"path":    path,
				"content": content,
				"size":    len(content),
			}, nil
		},
	}
}

func listDirectoryTool(ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        "list_directory",
			Description: "List the entries of a directory. Subdirectories carry a trailing slash.",
			Schema:      schemaFor[listDirectoryArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			path, err := optional(call, "path", ".")
			if err != nil {
				return nil, err
			}
			entries, err := ws.ListDirectory(ctx, path)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"path":    path,
				"entries": entries,
			}, nil
		},
	}
}

func searchCodeTool(name string, ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        name,
			Description: "Search the repository for a regular expression. Results are capped; narrow the pattern or glob if truncated.",
			Schema:      schemaFor[searchCodeArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			pattern, err := required[string](call, "pattern")
			if err != nil {
				return nil, err
			}
			glob, err := optional(call, "glob", "*")
			if err != nil {
				return nil, err
			}
			matches, truncated, err := ws.Search(ctx, pattern, glob)
			if err != nil {
				return nil, err
			}
			hits := make([]map[string]any, 0, len(matches))
			for _, m := range matches {
				hits = append(hits, map[string]any{
					"path":    m.Path,
					"line":    m.Line,
					"content": m.Content,
				})
			}
			payload := map[string]any{
				"pattern": pattern,
				"matches": hits,
				"count":   len(hits),
			}
			if truncated {
				payload["note"] = fmt.Sprintf("results truncated at %d matches; refine the pattern or glob", len(hits))
			}
			return payload, nil
		},
	}
}

func fileTreeTool(ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        "get_file_tree",
			Description: "Render the repository layout as an indented tree, skipping build and VCS directories.",
			Schema:      schemaFor[fileTreeArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			path, err := optional(call, "path", ".")
			if err != nil {
				return nil, err
			}
			depth, err := optional(call, "max_depth", 3)
			if err != nil {
				return nil, err
			}
			tree, err := ws.FileTree(ctx, path, depth)
			if err != nil {
				return nil, err
			}
			return map[string]any{"tree": tree}, nil
		},
	}
}

func createFileTool(ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        "create_file",
			Description: "Create a new file with the given content. Parent directories are created as needed; fails if the file already exists.",
			Schema:      schemaFor[createFileArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			path, err := required[string](call, "path")
			if err != nil {
				return nil, err
			}
			content, err := required[string](call, "content")
			if err != nil {
				return nil, err
			}
			if _, readErr := ws.ReadFile(ctx, path); readErr == nil {
				return nil, fmt.Errorf("file %s already exists; use update_file to replace it", path)
			}
			if err := ws.WriteFile(ctx, path, content, 0o644); err != nil {
				return nil, err
			}
			return map[string]any{
				"path":    path,
				"created": true,
				"size":    len(content),
			}, nil
		},
	}
}

func updateFileTool(ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        "update_file",
			Description: "Replace the full content of an existing file.",
			Schema:      schemaFor[updateFileArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			path, err := required[string](call, "path")
			if err != nil {
				return nil, err
			}
			content, err := required[string](call, "content")
			if err != nil {
				return nil, err
			}
			if _, readErr := ws.ReadFile(ctx, path); readErr != nil {
				return nil, fmt.Errorf("file %s does not exist; use create_file for new files", path)
			}
			if err := ws.WriteFile(ctx, path, content, 0o644); err != nil {
				return nil, err
			}
			return map[string]any{
				"path":    path,
				"updated": true,
				"size":    len(content),
			}, nil
		},
	}
}

func deleteFileTool(ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        "delete_file",
			Description: "Delete a file from the repository.",
			Schema:      schemaFor[deleteFileArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			path, err := required[string](call, "path")
			if err != nil {
				return nil, err
			}
			if err := ws.DeleteFile(ctx, path); err != nil {
				return nil, err
			}
			return map[string]any{
				"path":    path,
				"deleted": true,
			}, nil
		},
	}
}

func runCommandTool(name, description string, ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        name,
			Description: description,
			Schema:      schemaFor[runCommandArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			argv, err := requiredStrings(call, "command")
			if err != nil {
				return nil, err
			}
			seconds, err := optional(call, "timeout_seconds", 0)
			if err != nil {
				return nil, err
			}

			res, err := ws.RunCommand(ctx, argv, time.Duration(seconds)*time.Second)
			if err != nil {
				return nil, err
			}
			if res.TimedOut {
				return nil, fmt.Errorf("command %q timed out after %v: %w", argv[0], res.Duration.Round(time.Millisecond), context.DeadlineExceeded)
			}
			return map[string]any{
				"command":     argv,
				"stdout":      res.Stdout,
				"stderr":      res.Stderr,
				"exit_code":   res.ExitCode,
				"success":     res.ExitCode == 0,
				"duration_ms": res.Duration.Milliseconds(),
			}, nil
		},
	}
}

func gitDiffTool(ws *workspace.Workspace) Tool {
	return Tool{
		Def: Definition{
			Name:        "get_git_diff",
			Description: "Show the uncommitted changes in the repository, including untracked files.",
			Schema:      schemaFor[gitDiffArgs](),
		},
		Handler: func(ctx context.Context, call Call) (map[string]any, error) {
			logReasoning(ctx, call)
			diff, err := ws.GitDiff(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"diff":  diff,
				"empty": diff == "",
			}, nil
		},
	}
}

func logReasoning(ctx context.Context, call Call) {
	if reasoning, ok := call.Args["reasoning"].(string); ok && reasoning != "" {
		clog.FromContext(ctx).With("tool", call.Name).With("reasoning", reasoning).Info("Tool call reasoning")
	}
}
