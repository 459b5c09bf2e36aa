/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package agent

import "fmt"

// FindingKind classifies a finding recorded during a run.
type FindingKind string

const (
	// FindingFailingTests marks a test command that exited non-zero
	// during a review run. It is required: it reaches the result no
	// matter what the model concludes.
	FindingFailingTests FindingKind = "failing_tests"
)

// Finding is a fact observed during a run that the caller must see.
type Finding struct {
	Kind     FindingKind
	Message  string
	Required bool
}

func failingTestFinding(argv []string, exitCode int, stderr string) Finding {
	msg := fmt.Sprintf("test command %v exited with code %d", argv, exitCode)
	if stderr != "" {
		msg += ": " + firstLine(stderr)
	}
	return Finding{Kind: FindingFailingTests, Message: msg, Required: true}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
