/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package agent drives the conversation loop at the heart of octoforge:
// it sends the history to the model, dispatches the tool calls the
// model requests through the registry one at a time, and decides when
// the run is done. A run ends successfully when the model produces a
// final answer with no further tool calls, ends exhausted when the
// iteration cap is hit first, and ends failed when the provider stays
// unreachable through the retry budget. Whatever the ending, the caller
// receives a complete Result; panics and tool failures never cross the
// package boundary.
package agent
