/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/octoforge/octoforge/githubtask"
	"github.com/octoforge/octoforge/workspace"
)

func newReviewCommand(cfg *config) *cobra.Command {
	var (
		repoArg string
		pr      int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a pull request and post the verdict",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			owner, repo, err := parseRepo(repoArg)
			if err != nil {
				return err
			}

			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}

			task, err := d.fetcher.FetchReviewTask(ctx, owner, repo, pr)
			if err != nil {
				return err
			}

			ws, release, err := d.manager.Checkout(ctx, owner, repo, workspace.CheckoutOptions{
				Branch: task.Branch,
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

			verdict := githubtask.DeriveVerdict(res)
			if dryRun {
				clog.FromContext(ctx).With("verdict", string(verdict)).Info("Dry run, not posting review")
			} else {
				if verdict, err = d.publisher.PublishReview(ctx, task, res); err != nil {
					return err
				}
			}

			renderReview(os.Stdout, task, res, verdict)
			if res.Err != nil {
				return fmt.Errorf("review did not finish: %w", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoArg, "repo", "", "Repository as owner/name (required)")
	cmd.Flags().IntVar(&pr, "pr", 0, "Pull request number to review (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the review but skip posting it")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")
	return cmd
}
