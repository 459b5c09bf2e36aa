/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package metaprovider selects the concrete LLM provider from the
// model name: claude-* models go to Anthropic, gemini-* models to
// Google. Anything else is a configuration error.
package metaprovider

import (
	"context"
	"fmt"
	"strings"

	"github.com/octoforge/octoforge/provider"
	"github.com/octoforge/octoforge/provider/anthropicprovider"
	"github.com/octoforge/octoforge/provider/googleprovider"
)

// Config carries the credentials for whichever provider the model
// name selects.
type Config struct {
	Model           string
	AnthropicAPIKey string
	GoogleAPIKey    string
}

// New dispatches on the model-name prefix.
func New(ctx context.Context, cfg Config) (provider.Provider, error) {
	switch model := strings.ToLower(cfg.Model); {
	case strings.HasPrefix(model, "claude-"):
		return anthropicprovider.New(cfg.AnthropicAPIKey, cfg.Model)
	case strings.HasPrefix(model, "gemini-"):
		return googleprovider.New(ctx, cfg.GoogleAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported model: %q (expected claude-* or gemini-*)", cfg.Model)
	}
}
