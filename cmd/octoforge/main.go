/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the octoforge CLI: solve turns issues and
// review feedback into pull requests, review turns pull requests into
// posted reviews.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/octoforge/octoforge/agent"
	"github.com/octoforge/octoforge/githubtask"
	"github.com/octoforge/octoforge/provider/metaprovider"
	"github.com/octoforge/octoforge/workspace"
)

type config struct {
	Model           string `env:"OCTOFORGE_MODEL,default=claude-sonnet-4-5"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey    string `env:"GEMINI_API_KEY"`

	GitHubToken          string `env:"GITHUB_TOKEN"`
	GitHubAppID          int64  `env:"GITHUB_APP_ID"`
	GitHubInstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	GitHubAppKeyPath     string `env:"GITHUB_APP_KEY_PATH"`

	Identity      string `env:"OCTOFORGE_IDENTITY,default=octoforge"`
	WorkDir       string `env:"OCTOFORGE_WORK_DIR"`
	BaseBranch    string `env:"OCTOFORGE_BASE_BRANCH,default=main"`
	MaxIterations int    `env:"OCTOFORGE_MAX_ITERATIONS,default=20"`
	Verbose       bool   `env:"OCTOFORGE_VERBOSE,default=false"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("processing environment: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx = clog.WithLogger(ctx, log)

	root := &cobra.Command{
		Use:           "octoforge",
		Short:         "Agents that turn GitHub issues into pull requests and pull requests into reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSolveCommand(&cfg), newReviewCommand(&cfg))
	return root.ExecuteContext(ctx)
}

// deps holds everything a command needs, built once per invocation.
type deps struct {
	fetcher   *githubtask.Fetcher
	publisher *githubtask.Publisher
	runner    *agent.Runner
	manager   *workspace.Manager
}

func buildDeps(ctx context.Context, cfg *config) (*deps, error) {
	var client *github.Client
	var err error
	if cfg.GitHubAppID > 0 {
		client, err = githubtask.NewAppClient(cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubAppKeyPath)
	} else {
		client, err = githubtask.NewTokenClient(ctx, cfg.GitHubToken)
	}
	if err != nil {
		return nil, fmt.Errorf("building GitHub client: %w", err)
	}

	prov, err := metaprovider.New(ctx, metaprovider.Config{
		Model:           cfg.Model,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GoogleAPIKey:    cfg.GoogleAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("building provider: %w", err)
	}

	runner, err := agent.NewRunner(prov, agent.WithMaxIterations(cfg.MaxIterations))
	if err != nil {
		return nil, err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "octoforge-*")
		if err != nil {
			return nil, fmt.Errorf("creating work directory: %w", err)
		}
	}

	var tokenSource oauth2.TokenSource
	if cfg.GitHubToken != "" {
		tokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
	}
	manager, err := workspace.NewManager(workDir, cfg.Identity, tokenSource)
	if err != nil {
		return nil, fmt.Errorf("building workspace manager: %w", err)
	}

	return &deps{
		fetcher:   githubtask.NewFetcher(client),
		publisher: githubtask.NewPublisher(client, cfg.Identity, githubtask.WithBaseBranch(cfg.BaseBranch)),
		runner:    runner,
		manager:   manager,
	}, nil
}

// parseRepo splits an owner/name argument.
func parseRepo(s string) (owner, repo string, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be owner/name, got %q", s)
	}
	return parts[0], parts[1], nil
}
