/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package agent

import "sort"

// ExhaustionMarker appears in a Result summary when the iteration cap
// ended the run before the model produced a final answer.
const ExhaustionMarker = "iteration limit reached"

// Result is the one artifact a run hands back. It is complete whether
// the run succeeded, exhausted its iterations, or lost the provider;
// only setup failures (bad task, missing workspace) surface as errors
// instead.
type Result struct {
	// Success means the model finished with a final answer.
	Success bool
	// Summary is the model's final message, or an explanation of why
	// the run stopped without one.
	Summary string
	// ChangedFiles lists every path touched by a successful mutating
	// tool call across the run, deduplicated and sorted.
	ChangedFiles []string
	// Branch is the branch the run's changes belong on. Feedback
	// tasks carry the reused PR branch through unchanged.
	Branch string
	// Findings are facts observed during the run that the caller must
	// see regardless of the model's conclusion.
	Findings []Finding
	// Iterations is the number of loop iterations completed.
	Iterations int
	// Exhausted means the iteration cap ended the run.
	Exhausted bool
	// Err carries the provider failure or cancellation that ended the
	// run, nil otherwise.
	Err error
}

// HasRequiredFindings reports whether any finding is non-skippable.
// The review publisher derives its verdict from this.
func (r Result) HasRequiredFindings() bool {
	for _, f := range r.Findings {
		if f.Required {
			return true
		}
	}
	return false
}

func sortedPaths(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
