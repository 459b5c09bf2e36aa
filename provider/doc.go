/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package provider abstracts an LLM behind a single complete-with-tools
// call. The loop hands a Provider the full conversation history and the
// active tool definitions; the Provider answers with either final text
// or the tool calls the model wants executed. Implementations live in
// the subpackages and are selected by model-name prefix.
package provider
