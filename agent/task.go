/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"errors"
	"fmt"
)

// Kind says what a run is supposed to produce.
type Kind string

const (
	// NewImplementation implements an issue from scratch on a fresh
	// branch.
	NewImplementation Kind = "NEW_IMPLEMENTATION"
	// AddressFeedback revises an existing PR branch in response to
	// review feedback.
	AddressFeedback Kind = "ADDRESS_FEEDBACK"
	// ReviewPR assesses a PR branch read-only and reports findings.
	ReviewPR Kind = "REVIEW_PR"
)

// FeedbackItem is one piece of review feedback, in the order it was
// left on the PR.
type FeedbackItem struct {
	Author string
	Body   string
	// Approval marks feedback that asks for nothing (an approving
	// review, a "LGTM" comment).
	Approval bool
}

// Task is one unit of work handed to a run.
type Task struct {
	Kind  Kind
	Owner string
	Repo  string

	IssueNumber int
	PRNumber    int

	Title string
	Body  string

	// Branch is the existing PR branch for AddressFeedback and
	// ReviewPR tasks. Empty for NewImplementation, which derives its
	// own branch name.
	Branch string

	// Feedback is ordered oldest first. Only set for AddressFeedback.
	Feedback []FeedbackItem

	// Diff is the unified PR diff. Only set for ReviewPR, where it
	// backs complexity analysis.
	Diff string
}

// Validate rejects tasks that cannot identify their work.
func (t Task) Validate() error {
	if t.Owner == "" || t.Repo == "" {
		return errors.New("task must name owner and repo")
	}
	switch t.Kind {
	case NewImplementation:
		if t.IssueNumber <= 0 {
			return errors.New("new implementation task needs an issue number")
		}
	case AddressFeedback, ReviewPR:
		if t.PRNumber <= 0 {
			return fmt.Errorf("%s task needs a PR number", t.Kind)
		}
		if t.Branch == "" {
			return fmt.Errorf("%s task needs the PR branch", t.Kind)
		}
	default:
		return fmt.Errorf("unknown task kind %q", t.Kind)
	}
	return nil
}

// WorkBranch is the branch a run's changes belong on. Feedback and
// review tasks always reuse the PR branch; implementation tasks get a
// deterministic branch derived from the issue number.
func (t Task) WorkBranch() string {
	if t.Branch != "" {
		return t.Branch
	}
	return fmt.Sprintf("agent/issue-%d", t.IssueNumber)
}

// AllFeedbackPositive reports whether every feedback item is an
// approval. Such a task has nothing to address.
func (t Task) AllFeedbackPositive() bool {
	if len(t.Feedback) == 0 {
		return false
	}
	for _, item := range t.Feedback {
		if !item.Approval {
			return false
		}
	}
	return true
}
