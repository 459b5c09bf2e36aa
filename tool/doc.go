/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package tool implements the registry of capabilities exposed to the
// model. Every capability is bound to a single workspace and invoked by
// name with JSON-shaped arguments. Invoke never returns an error to the
// caller: unknown names, malformed arguments, handler failures, panics,
// timeouts and path escapes are all folded into the Result so the loop
// can feed them back to the model as ordinary tool output.
//
// Two profiles exist. The code profile carries the full read/write/run
// surface used to implement issues. The review profile is strictly
// read-only plus test execution and is used to assess pull requests; it
// exposes no mutating capability regardless of what the model asks for.
package tool
