/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"fmt"
	"strings"
)

const codeSystemPrompt = `You are a software engineer working inside a checked-out repository.
Use the available tools to explore the code, make changes, and verify them.
Work incrementally: read before you write, and run the project's tests when
they exist. Create and modify files only through the tools. When the work is
complete, reply with a short summary of what you changed and why, without
requesting further tool calls.`

const reviewSystemPrompt = `You are reviewing a pull request inside a checkout of its branch.
You can read files, search the code, run the test command, and analyze the
diff's complexity, but you cannot modify anything. Assess correctness, test
coverage, and maintainability. When you are done, reply with your review:
the issues you found ordered by severity, or a clear statement that the
change looks good. Do not request further tool calls in your final reply.`

func systemPrompt(t Task) string {
	if t.Kind == ReviewPR {
		return reviewSystemPrompt
	}
	return codeSystemPrompt
}

func taskPrompt(t Task) string {
	var b strings.Builder

	switch t.Kind {
	case NewImplementation:
		fmt.Fprintf(&b, "Implement the following issue from %s/%s.\n\n", t.Owner, t.Repo)
		fmt.Fprintf(&b, "Issue #%d: %s\n\n%s\n", t.IssueNumber, t.Title, t.Body)

	case AddressFeedback:
		fmt.Fprintf(&b, "Address the review feedback on pull request #%d of %s/%s (branch %s).\n\n", t.PRNumber, t.Owner, t.Repo, t.Branch)
		fmt.Fprintf(&b, "PR: %s\n\n%s\n", t.Title, t.Body)
		if len(t.Feedback) > 0 {
			b.WriteString("\nFeedback, oldest first:\n")
			for i, item := range t.Feedback {
				fmt.Fprintf(&b, "%d. %s: %s\n", i+1, item.Author, item.Body)
			}
		}

	case ReviewPR:
		fmt.Fprintf(&b, "Review pull request #%d of %s/%s (branch %s).\n\n", t.PRNumber, t.Owner, t.Repo, t.Branch)
		fmt.Fprintf(&b, "PR: %s\n\n%s\n", t.Title, t.Body)
		if t.Diff != "" {
			fmt.Fprintf(&b, "\nThe diff touches %d lines. Use analyze_pr_complexity for the breakdown.\n", strings.Count(t.Diff, "\n"))
		}
	}

	return b.String()
}
