/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubtask

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"

	"github.com/octoforge/octoforge/agent"
)

// Fetcher turns GitHub issues and pull requests into tasks.
type Fetcher struct {
	client *github.Client
}

// NewFetcher builds a Fetcher on an authenticated client.
func NewFetcher(client *github.Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchIssueTask loads an issue and builds the implementation task
// for it.
func (f *Fetcher) FetchIssueTask(ctx context.Context, owner, repo string, number int) (agent.Task, error) {
	issue, _, err := f.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return agent.Task{}, fmt.Errorf("fetching issue #%d: %w", number, err)
	}
	if issue.IsPullRequest() {
		return agent.Task{}, fmt.Errorf("#%d is a pull request, not an issue", number)
	}
	if issue.GetState() == "closed" {
		return agent.Task{}, fmt.Errorf("issue #%d is closed", number)
	}

	task := agent.Task{
		Kind:        agent.NewImplementation,
		Owner:       owner,
		Repo:        repo,
		IssueNumber: number,
		Title:       issue.GetTitle(),
		Body:        issue.GetBody(),
	}
	return task, task.Validate()
}

// FetchFeedbackTask loads a pull request with its comments and reviews
// and builds the feedback task for it. Feedback is ordered oldest
// first across comments and reviews.
func (f *Fetcher) FetchFeedbackTask(ctx context.Context, owner, repo string, number int) (agent.Task, error) {
	pr, _, err := f.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return agent.Task{}, fmt.Errorf("fetching pull request #%d: %w", number, err)
	}

	feedback, err := f.collectFeedback(ctx, owner, repo, number, pr.GetUser().GetLogin())
	if err != nil {
		return agent.Task{}, err
	}
	clog.FromContext(ctx).With("pr", number).With("feedback_items", len(feedback)).Info("Collected PR feedback")

	task := agent.Task{
		Kind:     agent.AddressFeedback,
		Owner:    owner,
		Repo:     repo,
		PRNumber: number,
		Title:    pr.GetTitle(),
		Body:     pr.GetBody(),
		Branch:   pr.GetHead().GetRef(),
		Feedback: feedback,
	}
	return task, task.Validate()
}

// FetchReviewTask loads a pull request and its unified diff and builds
// the review task for it.
func (f *Fetcher) FetchReviewTask(ctx context.Context, owner, repo string, number int) (agent.Task, error) {
	pr, _, err := f.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return agent.Task{}, fmt.Errorf("fetching pull request #%d: %w", number, err)
	}

	diff, _, err := f.client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return agent.Task{}, fmt.Errorf("fetching diff for #%d: %w", number, err)
	}

	task := agent.Task{
		Kind:     agent.ReviewPR,
		Owner:    owner,
		Repo:     repo,
		PRNumber: number,
		Title:    pr.GetTitle(),
		Body:     pr.GetBody(),
		Branch:   pr.GetHead().GetRef(),
		Diff:     diff,
	}
	return task, task.Validate()
}

// timedFeedback pairs a feedback item with when it was left, so
// comments and reviews interleave correctly.
type timedFeedback struct {
	at   time.Time
	item agent.FeedbackItem
}

func (f *Fetcher) collectFeedback(ctx context.Context, owner, repo string, number int, prAuthor string) ([]agent.FeedbackItem, error) {
	var timed []timedFeedback

	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := f.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments on #%d: %w", number, err)
		}
		for _, c := range comments {
			if item, ok := commentFeedback(c, prAuthor); ok {
				timed = append(timed, timedFeedback{at: c.GetCreatedAt().Time, item: item})
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	reviewOpts := &github.ListOptions{PerPage: 100}
	for {
		reviews, resp, err := f.client.PullRequests.ListReviews(ctx, owner, repo, number, reviewOpts)
		if err != nil {
			return nil, fmt.Errorf("listing reviews on #%d: %w", number, err)
		}
		for _, r := range reviews {
			if item, ok := reviewFeedback(r, prAuthor); ok {
				timed = append(timed, timedFeedback{at: r.GetSubmittedAt().Time, item: item})
			}
		}
		if resp.NextPage == 0 {
			break
		}
		reviewOpts.Page = resp.NextPage
	}

	sort.SliceStable(timed, func(i, j int) bool { return timed[i].at.Before(timed[j].at) })

	items := make([]agent.FeedbackItem, 0, len(timed))
	for _, t := range timed {
		items = append(items, t.item)
	}
	return items, nil
}

func commentFeedback(c *github.IssueComment, prAuthor string) (agent.FeedbackItem, bool) {
	author := c.GetUser().GetLogin()
	body := strings.TrimSpace(c.GetBody())
	if body == "" || author == prAuthor || c.GetUser().GetType() == "Bot" {
		return agent.FeedbackItem{}, false
	}
	return agent.FeedbackItem{
		Author:   author,
		Body:     body,
		Approval: isApprovingText(body),
	}, true
}

func reviewFeedback(r *github.PullRequestReview, prAuthor string) (agent.FeedbackItem, bool) {
	author := r.GetUser().GetLogin()
	if author == prAuthor || r.GetState() == "PENDING" {
		return agent.FeedbackItem{}, false
	}
	body := strings.TrimSpace(r.GetBody())
	approval := r.GetState() == "APPROVED"
	if body == "" {
		if !approval {
			return agent.FeedbackItem{}, false
		}
		body = "Approved."
	}
	return agent.FeedbackItem{
		Author:   author,
		Body:     body,
		Approval: approval || isApprovingText(body),
	}, true
}

// isApprovingText spots comments that approve without a formal review.
func isApprovingText(body string) bool {
	trimmed := strings.ToLower(strings.TrimRight(strings.TrimSpace(body), ".!"))
	switch trimmed {
	case "lgtm", "looks good", "looks good to me", "ship it", "approved", "+1":
		return true
	}
	return false
}
