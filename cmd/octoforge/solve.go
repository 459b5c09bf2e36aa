/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/octoforge/octoforge/agent"
	"github.com/octoforge/octoforge/workspace"
)

func newSolveCommand(cfg *config) *cobra.Command {
	var (
		repoArg string
		issue   int
		pr      int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Implement an issue or address PR feedback on a branch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			owner, repo, err := parseRepo(repoArg)
			if err != nil {
				return err
			}
			if (issue > 0) == (pr > 0) {
				return errors.New("exactly one of --issue or --pr is required")
			}

			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}

			var task agent.Task
			if issue > 0 {
				task, err = d.fetcher.FetchIssueTask(ctx, owner, repo, issue)
			} else {
				task, err = d.fetcher.FetchFeedbackTask(ctx, owner, repo, pr)
			}
			if err != nil {
				return err
			}

			ws, release, err := d.manager.Checkout(ctx, owner, repo, workspace.CheckoutOptions{
				Branch: task.WorkBranch(),
				Base:   cfg.BaseBranch,
				Reset:  true,
			})
			if err != nil {
				return fmt.Errorf("preparing workspace: %w", err)
			}
			defer release()

			res, err := d.runner.Run(ctx, task, ws)
			if err != nil {
				return err
			}

			var prURL string
			switch {
			case !res.Success || len(res.ChangedFiles) == 0:
				// Nothing publishable.
			case dryRun:
				clog.FromContext(ctx).With("branch", res.Branch).Info("Dry run, leaving changes unpublished")
			default:
				sha, err := d.manager.CommitAndPush(ctx, ws, res.Branch, commitMessage(task))
				if err != nil {
					return fmt.Errorf("pushing changes: %w", err)
				}
				if sha == "" {
					clog.FromContext(ctx).Info("Nothing to commit")
					break
				}
				prURL, err = d.publisher.PublishPR(ctx, task, res)
				if err != nil {
					return err
				}
			}

			renderResult(os.Stdout, task, res, prURL)
			if !res.Success {
				return fmt.Errorf("run did not succeed: %s", res.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoArg, "repo", "", "Repository as owner/name (required)")
	cmd.Flags().IntVar(&issue, "issue", 0, "Issue number to implement")
	cmd.Flags().IntVar(&pr, "pr", 0, "Pull request number whose feedback to address")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the agent but skip pushing and opening the PR")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func commitMessage(task agent.Task) string {
	if task.Kind == agent.NewImplementation {
		return fmt.Sprintf("Resolve #%d: %s", task.IssueNumber, task.Title)
	}
	return fmt.Sprintf("Address review feedback on #%d", task.PRNumber)
}
