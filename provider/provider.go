/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package provider

import (
	"context"

	"github.com/octoforge/octoforge/conversation"
	"github.com/octoforge/octoforge/tool"
)

// Usage is the token accounting for one model turn.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Completion is one model turn: final text, or one or more tool calls
// to execute before asking again. Text may accompany tool calls; the
// turn is final only when ToolCalls is empty.
type Completion struct {
	Text      string
	ToolCalls []tool.Call
	Usage     Usage
}

// Provider is the single LLM interface the loop depends on.
type Provider interface {
	// Model returns the model identifier requests are sent to.
	Model() string

	// Complete sends the full history and tool catalog, returning the
	// model's next turn.
	Complete(ctx context.Context, history []conversation.Message, tools []tool.Definition) (Completion, error)

	// Retryable classifies a Complete error as transient (rate limits,
	// overload) or permanent.
	Retryable(err error) bool
}
