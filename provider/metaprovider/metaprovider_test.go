/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package metaprovider

import (
	"context"
	"strings"
	"testing"
)

func TestNewModelSelection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		model   string
		wantErr string
	}{{
		name:    "unsupported model",
		model:   "unknown-model",
		wantErr: "unsupported model",
	}, {
		name:    "empty model",
		model:   "",
		wantErr: "unsupported model",
	}, {
		name:    "partial gemini",
		model:   "gem",
		wantErr: "unsupported model",
	}, {
		name:    "partial claude",
		model:   "cla",
		wantErr: "unsupported model",
	}, {
		name:    "claude without key",
		model:   "claude-sonnet-4-5",
		wantErr: "API key",
	}, {
		name:    "gemini without key",
		model:   "gemini-2.5-flash",
		wantErr: "API key",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ctx, Config{Model: tt.model})
			if err == nil {
				t.Fatalf("New() error = nil, wantErr containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, wantErr containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewDispatchesByPrefix(t *testing.T) {
	ctx := context.Background()

	p, err := New(ctx, Config{Model: "claude-sonnet-4-5", AnthropicAPIKey: "test-key"})
	if err != nil {
		t.Fatalf("claude dispatch: %v", err)
	}
	if p.Model() != "claude-sonnet-4-5" {
		t.Errorf("Model = %q", p.Model())
	}

	p, err = New(ctx, Config{Model: "gemini-2.5-flash", GoogleAPIKey: "test-key"})
	if err != nil {
		t.Fatalf("gemini dispatch: %v", err)
	}
	if p.Model() != "gemini-2.5-flash" {
		t.Errorf("Model = %q", p.Model())
	}
}

// Mixed-case model names still dispatch; the prefix check is
// case-insensitive but the model string is passed through unchanged.
func TestNewPreservesModelCase(t *testing.T) {
	p, err := New(context.Background(), Config{Model: "Claude-Sonnet-4-5", AnthropicAPIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Model() != "Claude-Sonnet-4-5" {
		t.Errorf("Model = %q", p.Model())
	}
}
