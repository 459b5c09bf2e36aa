/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package params provides type-safe extraction of tool-call arguments
// from the loosely typed maps produced by JSON decoding of model output.
package params
