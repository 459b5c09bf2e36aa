/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package runtrace records one OpenTelemetry span per agent run and
// one child span per dispatched tool call. With no tracer provider
// installed the spans are no-ops, so tracing never gates execution.
package runtrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "octoforge.agents.runtrace"

// Run is the span covering one full agent loop execution.
type Run struct {
	id    string
	ctx   context.Context
	span  oteltrace.Span
	start time.Time

	mu        sync.Mutex
	toolCalls int
}

// Start opens the run span. The returned context carries the span and
// must be used for everything the run does.
func Start(ctx context.Context, taskKind, model string) (context.Context, *Run) {
	tr := otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))

	ctx, span := tr.Start(ctx, "agent.run",
		oteltrace.WithAttributes(
			attribute.String("task.kind", taskKind),
			attribute.String("model", model),
		))

	return ctx, &Run{
		id:    newID(),
		ctx:   ctx,
		span:  span,
		start: time.Now(),
	}
}

// ID returns the run identifier used to correlate logs with spans.
func (r *Run) ID() string { return r.id }

// ToolCallCount returns how many tool calls have been recorded so far.
func (r *Run) ToolCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toolCalls
}

// End closes the run span, recording err as the span status when the
// run failed.
func (r *Run) End(err error) {
	r.mu.Lock()
	toolCalls := r.toolCalls
	r.mu.Unlock()

	r.span.SetAttributes(
		attribute.Int("agent.tool_calls", toolCalls),
		attribute.Int64("agent.duration_ms", time.Since(r.start).Milliseconds()),
	)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()
}

// ToolCall is the span covering one tool invocation.
type ToolCall struct {
	span  oteltrace.Span
	start time.Time
}

// StartToolCall opens a child span for one tool invocation.
func (r *Run) StartToolCall(id, name string) *ToolCall {
	r.mu.Lock()
	r.toolCalls++
	r.mu.Unlock()

	tr := otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
	_, span := tr.Start(r.ctx, "agent.tool_call",
		oteltrace.WithAttributes(
			attribute.String("tool.call_id", id),
			attribute.String("tool.name", name),
		))

	return &ToolCall{span: span, start: time.Now()}
}

// End closes the tool-call span. A non-empty error kind marks the span
// failed; the message goes into the status description.
func (tc *ToolCall) End(errKind, errMessage string) {
	tc.span.SetAttributes(attribute.Int64("tool.duration_ms", time.Since(tc.start).Milliseconds()))
	if errKind != "" {
		tc.span.SetAttributes(attribute.String("tool.error_kind", errKind))
		tc.span.SetStatus(codes.Error, errMessage)
	} else {
		tc.span.SetStatus(codes.Ok, "")
	}
	tc.span.End()
}

func newID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "run-unknown"
	}
	return "run-" + hex.EncodeToString(b)
}
