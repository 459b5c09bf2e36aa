/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package conversation holds the ordered message history of one agent
// run: system and task prompts, assistant turns with their tool calls,
// and the tool results that answer them. A State is owned by exactly
// one run and is never shared across goroutines.
package conversation
