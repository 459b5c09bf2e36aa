/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubtask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"

	"github.com/octoforge/octoforge/agent"
)

// DefaultBaseBranch is the PR base used when none is configured.
const DefaultBaseBranch = "main"

// Publisher turns run results into pull requests and reviews.
type Publisher struct {
	client     *github.Client
	identity   string
	baseBranch string
}

// PublisherOption adjusts a Publisher.
type PublisherOption func(*Publisher)

// WithBaseBranch sets the base branch new pull requests target.
func WithBaseBranch(branch string) PublisherOption {
	return func(p *Publisher) {
		if branch != "" {
			p.baseBranch = branch
		}
	}
}

// NewPublisher builds a Publisher. The identity names the bot in the
// bodies it writes.
func NewPublisher(client *github.Client, identity string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:     client,
		identity:   identity,
		baseBranch: DefaultBaseBranch,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishPR opens a pull request for the run's branch, or comments on
// the existing one when the branch already has an open PR. Returns the
// PR's HTML URL.
func (p *Publisher) PublishPR(ctx context.Context, task agent.Task, res agent.Result) (string, error) {
	if !res.Success {
		return "", fmt.Errorf("refusing to publish a failed run: %s", res.Summary)
	}
	if len(res.ChangedFiles) == 0 {
		return "", errors.New("run changed no files, nothing to publish")
	}

	log := clog.FromContext(ctx).With("branch", res.Branch)

	existing, err := p.openPRForBranch(ctx, task, res.Branch)
	if err != nil {
		return "", err
	}

	if existing != nil {
		log.With("pr", existing.GetNumber()).Info("Branch already has an open PR, posting update comment")
		comment := fmt.Sprintf("Pushed an update to `%s`.\n\n%s", res.Branch, prBody(task, res))
		if _, _, err := p.client.Issues.CreateComment(ctx, task.Owner, task.Repo, existing.GetNumber(), &github.IssueComment{
			Body: github.Ptr(comment),
		}); err != nil {
			return "", fmt.Errorf("commenting on PR #%d: %w", existing.GetNumber(), err)
		}
		return existing.GetHTMLURL(), nil
	}

	pr, _, err := p.client.PullRequests.Create(ctx, task.Owner, task.Repo, &github.NewPullRequest{
		Title: github.Ptr(prTitle(task)),
		Body:  github.Ptr(prBody(task, res)),
		Head:  github.Ptr(res.Branch),
		Base:  github.Ptr(p.baseBranch),
	})
	if err != nil {
		return "", fmt.Errorf("creating pull request: %w", err)
	}

	log.With("pr", pr.GetNumber()).Info("Created pull request")
	return pr.GetHTMLURL(), nil
}

// PublishReview posts the run's review on the pull request, with the
// event derived from the verdict.
func (p *Publisher) PublishReview(ctx context.Context, task agent.Task, res agent.Result) (Verdict, error) {
	verdict := DeriveVerdict(res)

	_, _, err := p.client.PullRequests.CreateReview(ctx, task.Owner, task.Repo, task.PRNumber, &github.PullRequestReviewRequest{
		Body:  github.Ptr(reviewBody(res, verdict)),
		Event: github.Ptr(reviewEvent(verdict)),
	})
	if err != nil {
		return verdict, fmt.Errorf("posting review on #%d: %w", task.PRNumber, err)
	}

	clog.FromContext(ctx).With("pr", task.PRNumber).With("verdict", string(verdict)).Info("Posted review")
	return verdict, nil
}

func (p *Publisher) openPRForBranch(ctx context.Context, task agent.Task, branch string) (*github.PullRequest, error) {
	prs, _, err := p.client.PullRequests.List(ctx, task.Owner, task.Repo, &github.PullRequestListOptions{
		Head:  task.Owner + ":" + branch,
		State: "open",
	})
	if err != nil {
		return nil, fmt.Errorf("listing PRs for branch %s: %w", branch, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return prs[0], nil
}

func prTitle(task agent.Task) string {
	if task.Kind == agent.NewImplementation {
		return fmt.Sprintf("Resolve #%d: %s", task.IssueNumber, task.Title)
	}
	return task.Title
}

func prBody(task agent.Task, res agent.Result) string {
	var b strings.Builder
	b.WriteString(res.Summary)
	b.WriteString("\n\nChanged files:\n")
	for _, path := range res.ChangedFiles {
		fmt.Fprintf(&b, "- `%s`\n", path)
	}
	if task.Kind == agent.NewImplementation {
		fmt.Fprintf(&b, "\nCloses #%d.\n", task.IssueNumber)
	}
	return b.String()
}

func reviewBody(res agent.Result, verdict Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s\n\n", verdict)
	b.WriteString(res.Summary)
	if len(res.Findings) > 0 {
		b.WriteString("\n\nFindings:\n")
		for _, f := range res.Findings {
			marker := ""
			if f.Required {
				marker = " (blocking)"
			}
			fmt.Fprintf(&b, "- [%s]%s %s\n", f.Kind, marker, f.Message)
		}
	}
	if res.Exhausted {
		b.WriteString("\n\nThe review stopped at its iteration limit; treat this as incomplete.\n")
	}
	return b.String()
}
