/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package anthropicprovider talks to Claude models through the
// Anthropic SDK. Responses are streamed and accumulated into a single
// message; rate-limit and overload statuses are classified retryable.
package anthropicprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"

	"github.com/octoforge/octoforge/conversation"
	"github.com/octoforge/octoforge/provider"
	"github.com/octoforge/octoforge/tool"
)

// Provider implements provider.Provider against the Anthropic API.
type Provider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// Option adjusts a Provider.
type Option func(*Provider)

// WithMaxTokens sets the per-turn completion token budget.
func WithMaxTokens(n int64) Option {
	return func(p *Provider) { p.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(p *Provider) { p.temperature = t }
}

// New builds a Provider for the given Claude model.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}

	p := &Provider{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   8192,
		temperature: 0.1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Model implements provider.Provider.
func (p *Provider) Model() string { return p.model }

// Retryable reports whether err is a transient Anthropic API error.
func (p *Provider) Retryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}

// Complete implements provider.Provider.
func (p *Provider) Complete(ctx context.Context, history []conversation.Message, tools []tool.Definition) (provider.Completion, error) {
	params, err := p.buildParams(history, tools)
	if err != nil {
		return provider.Completion{}, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	var msg anthropic.Message
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return provider.Completion{}, fmt.Errorf("accumulating stream event: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return provider.Completion{}, fmt.Errorf("streaming message: %w", err)
	}

	return completionFromMessage(ctx, msg)
}

// completionFromMessage flattens an accumulated message. Text blocks
// concatenate in order; a turn may carry several around tool calls.
func completionFromMessage(ctx context.Context, msg anthropic.Message) (provider.Completion, error) {
	completion := provider.Completion{
		Usage: provider.Usage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
		},
	}

	for _, content := range msg.Content {
		switch content.Type {
		case "text":
			completion.Text += content.Text
		case "tool_use":
			var args map[string]any
			if err := json.Unmarshal(content.Input, &args); err != nil {
				clog.FromContext(ctx).With("tool", content.Name).With("error", err).
					Warn("Model produced unparseable tool input")
				args = map[string]any{}
			}
			completion.ToolCalls = append(completion.ToolCalls, tool.Call{
				ID:   content.ID,
				Name: content.Name,
				Args: args,
			})
		}
	}

	if completion.Text == "" && len(completion.ToolCalls) == 0 {
		return provider.Completion{}, errors.New("empty response from model")
	}
	return completion, nil
}

func (p *Provider) buildParams(history []conversation.Message, tools []tool.Definition) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(p.temperature),
	}

	for _, def := range tools {
		tp, err := toolParam(def)
		if err != nil {
			return params, err
		}
		params.Tools = append(params.Tools, tp)
	}

	for _, m := range history {
		switch m.Role {
		case conversation.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Text})

		case conversation.RoleUser:
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Text)},
			})

		case conversation.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, call := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: call.Args,
					},
				})
			}
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})

		case conversation.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, res := range m.ToolResults {
				text, err := resultText(res)
				if err != nil {
					return params, err
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: res.CallID,
						IsError:   anthropic.Bool(res.IsError()),
						Content: []anthropic.ToolResultBlockParamContentUnion{{
							OfText: &anthropic.TextBlockParam{Text: text},
						}},
					},
				})
			}
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: blocks,
			})
		}
	}

	return params, nil
}

func toolParam(def tool.Definition) (anthropic.ToolUnionParam, error) {
	raw, err := json.Marshal(def.Schema)
	if err != nil {
		return anthropic.ToolUnionParam{}, fmt.Errorf("marshaling schema for %s: %w", def.Name, err)
	}
	var shape struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return anthropic.ToolUnionParam{}, fmt.Errorf("decoding schema for %s: %w", def.Name, err)
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: shape.Properties,
				Required:   shape.Required,
			},
		},
	}, nil
}

func resultText(res tool.Result) (string, error) {
	payload := res.Payload
	if res.IsError() {
		payload = map[string]any{
			"error": res.Message,
			"kind":  string(res.Kind),
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling result for call %s: %w", res.CallID, err)
	}
	return string(raw), nil
}
