/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package githubtask connects agent runs to GitHub. The Fetcher turns
// issues and pull requests into tasks; the Publisher turns run results
// back into pull requests and reviews.
package githubtask
