/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package googleprovider talks to Gemini models through the Google
// GenAI SDK. Transient quota and server errors are classified
// retryable by message, as the SDK does not expose typed statuses. A
// malformed-function-call finish is also classified retryable so the
// loop re-asks the model.
package googleprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"

	"github.com/octoforge/octoforge/conversation"
	"github.com/octoforge/octoforge/provider"
	"github.com/octoforge/octoforge/tool"
)

// errMalformedFunctionCall marks a turn the model finished with an
// unparseable function call. Re-sending the history usually clears it.
var errMalformedFunctionCall = errors.New("model produced a malformed function call")

// Provider implements provider.Provider against the Gemini API.
type Provider struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
	temperature     float32
}

// Option adjusts a Provider.
type Option func(*Provider)

// WithMaxOutputTokens sets the per-turn completion token budget.
func WithMaxOutputTokens(n int32) Option {
	return func(p *Provider) { p.maxOutputTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(p *Provider) { p.temperature = t }
}

// New builds a Provider for the given Gemini model.
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("google API key is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}

	p := &Provider{
		client:          client,
		model:           model,
		maxOutputTokens: 8192,
		temperature:     0.1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Model implements provider.Provider.
func (p *Provider) Model() string { return p.model }

// Retryable reports whether err is a transient Gemini error. The SDK
// surfaces these as strings, so we match on message.
func (p *Provider) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errMalformedFunctionCall) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Resource exhausted") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "Overloaded") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "Internal error") ||
		strings.Contains(msg, "server error")
}

// Complete implements provider.Provider.
func (p *Provider) Complete(ctx context.Context, history []conversation.Message, tools []tool.Definition) (provider.Completion, error) {
	config, contents, err := p.buildRequest(history, tools)
	if err != nil {
		return provider.Completion{}, err
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return provider.Completion{}, fmt.Errorf("generating content: %w", err)
	}

	return completionFromResponse(ctx, resp)
}

// completionFromResponse flattens the first candidate. Text parts
// concatenate in order; a turn may carry several around function calls.
func completionFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (provider.Completion, error) {
	if len(resp.Candidates) == 0 {
		return provider.Completion{}, errors.New("no candidates in model response")
	}

	completion := provider.Completion{}
	if resp.UsageMetadata != nil {
		completion.Usage = provider.Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
		clog.FromContext(ctx).With("finish_message", candidate.FinishMessage).
			Warn("Model attempted a malformed function call")
		return provider.Completion{}, errMalformedFunctionCall
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return provider.Completion{}, errors.New("no content in model response")
	}

	for _, part := range candidate.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			completion.ToolCalls = append(completion.ToolCalls, tool.Call{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		case part.Text != "":
			completion.Text += part.Text
		}
	}

	if completion.Text == "" && len(completion.ToolCalls) == 0 {
		return provider.Completion{}, errors.New("empty response from model")
	}
	return completion, nil
}

func (p *Provider) buildRequest(history []conversation.Message, tools []tool.Definition) (*genai.GenerateContentConfig, []*genai.Content, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     ptr(p.temperature),
		MaxOutputTokens: p.maxOutputTokens,
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, def := range tools {
		decl, err := functionDeclaration(def)
		if err != nil {
			return nil, nil, err
		}
		declarations = append(declarations, decl)
	}
	if len(declarations) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	var contents []*genai.Content
	for _, m := range history {
		switch m.Role {
		case conversation.RoleSystem:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Text}},
			}

		case conversation.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Text}},
			})

		case conversation.RoleAssistant:
			var parts []*genai.Part
			if m.Text != "" {
				parts = append(parts, &genai.Part{Text: m.Text})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case conversation.RoleTool:
			var parts []*genai.Part
			for _, res := range m.ToolResults {
				response := res.Payload
				if res.IsError() {
					response = map[string]any{
						"error": res.Message,
						"kind":  string(res.Kind),
					}
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       res.CallID,
						Name:     res.Name,
						Response: response,
					},
				})
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		}
	}

	return config, contents, nil
}

func ptr[T any](v T) *T { return &v }

func functionDeclaration(def tool.Definition) (*genai.FunctionDeclaration, error) {
	raw, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema for %s: %w", def.Name, err)
	}
	var shape struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
			Items       *struct {
				Type string `json:"type"`
			} `json:"items"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("decoding schema for %s: %w", def.Name, err)
	}

	properties := make(map[string]*genai.Schema, len(shape.Properties))
	for name, prop := range shape.Properties {
		s := &genai.Schema{
			Type:        mapSchemaType(prop.Type),
			Description: prop.Description,
		}
		if prop.Items != nil {
			s.Items = &genai.Schema{Type: mapSchemaType(prop.Items.Type)}
		}
		properties[name] = s
	}

	return &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   shape.Required,
		},
	}, nil
}

// mapSchemaType translates JSON Schema type names into the genai enum,
// which is uppercase and parsed case-sensitively by the API.
func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	case "null":
		return genai.TypeNULL
	default:
		return ""
	}
}
