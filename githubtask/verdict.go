/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubtask

import "github.com/octoforge/octoforge/agent"

// Verdict is the conclusion a published review carries.
type Verdict string

const (
	// ReadyToMerge means the run finished cleanly with nothing
	// blocking.
	ReadyToMerge Verdict = "READY_TO_MERGE"
	// NeedsChanges means the run observed a blocking fact, such as a
	// failing test command.
	NeedsChanges Verdict = "NEEDS_CHANGES"
	// RequiresDiscussion means the run could not reach a clear
	// conclusion, typically exhaustion or a provider failure.
	RequiresDiscussion Verdict = "REQUIRES_DISCUSSION"
)

// DeriveVerdict maps a run result to its review verdict. Required
// findings outrank the model's own conclusion.
func DeriveVerdict(res agent.Result) Verdict {
	switch {
	case res.HasRequiredFindings():
		return NeedsChanges
	case res.Success:
		return ReadyToMerge
	default:
		return RequiresDiscussion
	}
}

// reviewEvent maps a verdict to the GitHub review event to submit.
func reviewEvent(v Verdict) string {
	switch v {
	case ReadyToMerge:
		return "APPROVE"
	case NeedsChanges:
		return "REQUEST_CHANGES"
	default:
		return "COMMENT"
	}
}
