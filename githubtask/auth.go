/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubtask

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// NewTokenClient builds a GitHub client from a personal access token.
func NewTokenClient(ctx context.Context, token string) (*github.Client, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts)), nil
}

// NewAppClient builds a GitHub client authenticated as a GitHub App
// installation, from the App's private key file.
func NewAppClient(appID, installationID int64, privateKeyPath string) (*github.Client, error) {
	if appID <= 0 || installationID <= 0 {
		return nil, errors.New("app ID and installation ID are required")
	}
	transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading app key: %w", err)
	}
	return github.NewClient(&http.Client{Transport: transport}), nil
}
