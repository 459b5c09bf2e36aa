/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records token usage and tool-call counters for agent
// runs via OpenTelemetry. Counter creation degrades to no-ops so a
// missing meter provider never fails a run.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is shared by every agent run; the model and task kind are
// dimensions on the recorded metrics.
const MeterName = "octoforge.agents"

// Agent carries the counters recorded during one or more agent runs.
type Agent struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	toolFailures     metric.Int64Counter
}

// NewAgent builds the counter set. Any counter that fails to
// initialize is replaced with a no-op and logged, never returned as an
// error.
func NewAgent() *Agent {
	meter := otel.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0"))

	counter := func(name, description, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(description),
			metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, metric disabled", "counter", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Agent{
		promptTokens:     counter("agent.token.prompt", "Prompt tokens sent to the model", "{tokens}"),
		completionTokens: counter("agent.token.completion", "Completion tokens produced by the model", "{tokens}"),
		toolCalls:        counter("agent.tool.calls", "Tool invocations dispatched by the loop", "{calls}"),
		toolFailures:     counter("agent.tool.failures", "Tool invocations that returned an error result", "{calls}"),
	}
}

// RecordTokens records one model turn's token usage.
func (a *Agent) RecordTokens(ctx context.Context, model string, prompt, completion int64) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	a.promptTokens.Add(ctx, prompt, attrs)
	a.completionTokens.Add(ctx, completion, attrs)
}

// RecordToolCall records one dispatched tool call and whether it
// failed.
func (a *Agent) RecordToolCall(ctx context.Context, model, toolName string, failed bool) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("tool", toolName),
	)
	a.toolCalls.Add(ctx, 1, attrs)
	if failed {
		a.toolFailures.Add(ctx, 1, attrs)
	}
}
