/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubtask

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v84/github"
	"github.com/stretchr/testify/require"

	"github.com/octoforge/octoforge/agent"
)

// testClient points a go-github client at a local test server.
func testClient(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

func TestFetchIssueTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/issues/7", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"number": 7, "state": "open", "title": "Add hello", "body": "We need a hello script."}`)
	})
	mux.HandleFunc("GET /repos/octo/demo/issues/8", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"number": 8, "state": "closed", "title": "Old"}`)
	})
	mux.HandleFunc("GET /repos/octo/demo/issues/9", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"number": 9, "state": "open", "pull_request": {"url": "x"}}`)
	})

	f := NewFetcher(testClient(t, mux))
	ctx := context.Background()

	task, err := f.FetchIssueTask(ctx, "octo", "demo", 7)
	require.NoError(t, err)
	want := agent.Task{
		Kind: agent.NewImplementation, Owner: "octo", Repo: "demo",
		IssueNumber: 7, Title: "Add hello", Body: "We need a hello script.",
	}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.FetchIssueTask(ctx, "octo", "demo", 8); err == nil {
		t.Error("closed issue should be rejected")
	}
	if _, err := f.FetchIssueTask(ctx, "octo", "demo", 9); err == nil {
		t.Error("pull request should be rejected as an issue")
	}
}

func TestFetchFeedbackTaskOrdersFeedback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/pulls/3", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"number": 3, "title": "Add hello", "body": "Adds hello.py",
			"user": {"login": "octoforge-bot"},
			"head": {"ref": "agent/issue-7"}
		}`)
	})
	// The later comment has the earlier timestamp: ordering must be by
	// time, not by source or response order.
	mux.HandleFunc("GET /repos/octo/demo/issues/3/comments", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"user": {"login": "alice"}, "body": "please add a test", "created_at": "2026-08-20T12:00:00Z"},
			{"user": {"login": "octoforge-bot"}, "body": "done", "created_at": "2026-08-20T13:00:00Z"},
			{"user": {"login": "ci-bot", "type": "Bot"}, "body": "build passed", "created_at": "2026-08-20T13:05:00Z"}
		]`)
	})
	mux.HandleFunc("GET /repos/octo/demo/pulls/3/reviews", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"user": {"login": "bob"}, "state": "CHANGES_REQUESTED", "body": "rename the helper", "submitted_at": "2026-08-20T11:00:00Z"},
			{"user": {"login": "carol"}, "state": "APPROVED", "body": "", "submitted_at": "2026-08-20T14:00:00Z"}
		]`)
	})

	f := NewFetcher(testClient(t, mux))
	task, err := f.FetchFeedbackTask(context.Background(), "octo", "demo", 3)
	require.NoError(t, err)

	if task.Kind != agent.AddressFeedback || task.Branch != "agent/issue-7" {
		t.Errorf("task = %+v", task)
	}

	want := []agent.FeedbackItem{
		{Author: "bob", Body: "rename the helper"},
		{Author: "alice", Body: "please add a test"},
		{Author: "carol", Body: "Approved.", Approval: true},
	}
	if diff := cmp.Diff(want, task.Feedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
	if task.AllFeedbackPositive() {
		t.Error("mixed feedback should not be all positive")
	}
}

func TestFetchReviewTask(t *testing.T) {
	const rawDiff = "diff --git a/hello.py b/hello.py\n+print('hi')\n"

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			fmt.Fprint(w, rawDiff)
			return
		}
		fmt.Fprint(w, `{"number": 3, "title": "Add hello", "head": {"ref": "feature/x"}}`)
	})

	f := NewFetcher(testClient(t, mux))
	task, err := f.FetchReviewTask(context.Background(), "octo", "demo", 3)
	require.NoError(t, err)

	if task.Kind != agent.ReviewPR || task.Branch != "feature/x" {
		t.Errorf("task = %+v", task)
	}
	if task.Diff != rawDiff {
		t.Errorf("Diff = %q, want raw diff", task.Diff)
	}
}

func TestIsApprovingText(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"LGTM":                         true,
		"lgtm!":                        true,
		"Looks good to me.":            true,
		"ship it":                      true,
		"+1":                           true,
		"please add a test":            false,
		"looks good, but fix the typo": false,
	}
	for body, want := range tests {
		if got := isApprovingText(body); got != want {
			t.Errorf("isApprovingText(%q) = %t, want %t", body, got, want)
		}
	}
}
