/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/octoforge/octoforge/workspace"
)

// Registry is a fixed name -> tool catalog bound to one workspace.
// The catalog never changes after construction.
type Registry struct {
	tools map[string]Tool
	order []string
}

func newRegistry(tools []Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Def.Name] = t
		r.order = append(r.order, t.Def.Name)
	}
	return r
}

// Definitions returns the tool definitions in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Def)
	}
	return defs
}

// Invoke dispatches one call and always returns a Result. The planner
// is untrusted input: unknown names, bad arguments, handler errors and
// panics are all converted into error results here, never raised.
func (r *Registry) Invoke(ctx context.Context, call Call) (res Result) {
	log := clog.FromContext(ctx)

	t, ok := r.tools[call.Name]
	if !ok {
		log.With("tool", call.Name).Warn("Unknown tool requested")
		return failure(call, KindUnknownTool, fmt.Sprintf("unknown tool %q", call.Name))
	}

	defer func() {
		if p := recover(); p != nil {
			log.With("tool", call.Name).With("panic", p).Error("Tool handler panicked")
			res = failure(call, KindExecutionError, fmt.Sprintf("tool %s panicked: %v", call.Name, p))
		}
	}()

	payload, err := t.Handler(ctx, call)
	if err != nil {
		log.With("tool", call.Name).With("error", err).Warn("Tool call failed")
		return failure(call, classify(err), err.Error())
	}
	return Result{CallID: call.ID, Name: call.Name, Payload: payload}
}

func failure(call Call, kind ErrorKind, msg string) Result {
	return Result{CallID: call.ID, Name: call.Name, Kind: kind, Message: msg}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidArguments):
		return KindInvalidArgs
	case errors.Is(err, workspace.ErrPathEscape):
		return KindPathEscape
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindExecutionError
	}
}
