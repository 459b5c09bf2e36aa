/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"strings"
	"testing"

	"github.com/octoforge/octoforge/agent"
	"github.com/octoforge/octoforge/githubtask"
)

func TestParseRepo(t *testing.T) {
	t.Parallel()

	owner, repo, err := parseRepo("octo/demo")
	if err != nil || owner != "octo" || repo != "demo" {
		t.Errorf("parseRepo(octo/demo) = %q, %q, %v", owner, repo, err)
	}

	for _, bad := range []string{"", "octo", "octo/", "/demo", "a/b/c"} {
		if _, _, err := parseRepo(bad); err == nil {
			t.Errorf("parseRepo(%q) should fail", bad)
		}
	}
}

func TestCommitMessage(t *testing.T) {
	t.Parallel()

	issue := agent.Task{Kind: agent.NewImplementation, IssueNumber: 7, Title: "Add hello"}
	if got := commitMessage(issue); got != "Resolve #7: Add hello" {
		t.Errorf("commitMessage(issue) = %q", got)
	}

	feedback := agent.Task{Kind: agent.AddressFeedback, PRNumber: 3}
	if got := commitMessage(feedback); got != "Address review feedback on #3" {
		t.Errorf("commitMessage(feedback) = %q", got)
	}
}

func TestRenderResult(t *testing.T) {
	t.Parallel()

	task := agent.Task{Kind: agent.NewImplementation, Owner: "octo", Repo: "demo", IssueNumber: 7}
	res := agent.Result{
		Success:      true,
		Summary:      "Added hello.py.",
		ChangedFiles: []string{"hello.py"},
		Branch:       "agent/issue-7",
		Iterations:   2,
	}

	var b strings.Builder
	renderResult(&b, task, res, "https://github.test/octo/demo/pull/11")
	out := b.String()

	for _, want := range []string{"NEW_IMPLEMENTATION", "octo/demo", "agent/issue-7", "hello.py", "pull/11", "Added hello.py."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReview(t *testing.T) {
	t.Parallel()

	task := agent.Task{Kind: agent.ReviewPR, Owner: "octo", Repo: "demo", PRNumber: 3}
	res := agent.Result{
		Summary:    "Tests fail.",
		Iterations: 4,
		Findings:   []agent.Finding{{Kind: agent.FindingFailingTests, Message: "pytest exited with code 1", Required: true}},
	}

	var b strings.Builder
	renderReview(&b, task, res, githubtask.NeedsChanges)
	out := b.String()

	for _, want := range []string{"octo/demo#3", "NEEDS_CHANGES", "(blocking)", "pytest exited with code 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
