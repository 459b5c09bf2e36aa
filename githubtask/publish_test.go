/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubtask

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/octoforge/octoforge/agent"
)

func solveTask() agent.Task {
	return agent.Task{
		Kind: agent.NewImplementation, Owner: "octo", Repo: "demo",
		IssueNumber: 7, Title: "Add hello",
	}
}

func solveResult() agent.Result {
	return agent.Result{
		Success:      true,
		Summary:      "Added hello.py.",
		ChangedFiles: []string{"hello.py"},
		Branch:       "agent/issue-7",
	}
}

func TestPublishPRCreatesNew(t *testing.T) {
	var created map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/pulls", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("POST /repos/octo/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 11, "html_url": "https://github.test/octo/demo/pull/11"}`)
	})

	p := NewPublisher(testClient(t, mux), "octoforge")
	url, err := p.PublishPR(context.Background(), solveTask(), solveResult())
	if err != nil {
		t.Fatalf("PublishPR: %v", err)
	}

	if url != "https://github.test/octo/demo/pull/11" {
		t.Errorf("url = %q", url)
	}
	if created["title"] != "Resolve #7: Add hello" {
		t.Errorf("title = %v", created["title"])
	}
	if created["head"] != "agent/issue-7" || created["base"] != "main" {
		t.Errorf("head/base = %v/%v", created["head"], created["base"])
	}
	if body, _ := created["body"].(string); !strings.Contains(body, "Closes #7.") {
		t.Errorf("body = %q", body)
	}
}

func TestPublishPRCommentsOnExisting(t *testing.T) {
	var commented map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("head"); got != "octo:agent/issue-7" {
			t.Errorf("head filter = %q", got)
		}
		fmt.Fprint(w, `[{"number": 11, "html_url": "https://github.test/octo/demo/pull/11"}]`)
	})
	mux.HandleFunc("POST /repos/octo/demo/issues/11/comments", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&commented); err != nil {
			t.Errorf("decode comment body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	})

	p := NewPublisher(testClient(t, mux), "octoforge")
	url, err := p.PublishPR(context.Background(), solveTask(), solveResult())
	if err != nil {
		t.Fatalf("PublishPR: %v", err)
	}

	if url != "https://github.test/octo/demo/pull/11" {
		t.Errorf("url = %q", url)
	}
	if body, _ := commented["body"].(string); !strings.Contains(body, "agent/issue-7") {
		t.Errorf("comment = %q", body)
	}
}

func TestPublishPRRefusesFailedRuns(t *testing.T) {
	p := NewPublisher(testClient(t, http.NewServeMux()), "octoforge")

	failed := solveResult()
	failed.Success = false
	if _, err := p.PublishPR(context.Background(), solveTask(), failed); err == nil {
		t.Error("failed run should not publish")
	}

	empty := solveResult()
	empty.ChangedFiles = nil
	if _, err := p.PublishPR(context.Background(), solveTask(), empty); err == nil {
		t.Error("run with no changes should not publish")
	}
}

func TestPublishReview(t *testing.T) {
	var posted map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/octo/demo/pulls/3/reviews", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Errorf("decode review body: %v", err)
		}
		fmt.Fprint(w, `{"id": 1}`)
	})

	task := agent.Task{Kind: agent.ReviewPR, Owner: "octo", Repo: "demo", PRNumber: 3, Branch: "feature/x"}
	res := agent.Result{
		Success:  true,
		Summary:  "Tests fail on the new path.",
		Findings: []agent.Finding{{Kind: agent.FindingFailingTests, Message: "pytest exited with code 1", Required: true}},
	}

	p := NewPublisher(testClient(t, mux), "octoforge")
	verdict, err := p.PublishReview(context.Background(), task, res)
	if err != nil {
		t.Fatalf("PublishReview: %v", err)
	}

	if verdict != NeedsChanges {
		t.Errorf("verdict = %s, want NEEDS_CHANGES", verdict)
	}
	if posted["event"] != "REQUEST_CHANGES" {
		t.Errorf("event = %v", posted["event"])
	}
	if body, _ := posted["body"].(string); !strings.Contains(body, "Verdict: NEEDS_CHANGES") {
		t.Errorf("body = %q", body)
	}
}
