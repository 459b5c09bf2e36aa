/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/octoforge/octoforge/conversation"
	"github.com/octoforge/octoforge/metrics"
	"github.com/octoforge/octoforge/provider"
	"github.com/octoforge/octoforge/retry"
	"github.com/octoforge/octoforge/runtrace"
	"github.com/octoforge/octoforge/tool"
	"github.com/octoforge/octoforge/workspace"
)

// Runner drives agent runs against one provider. It is safe to share
// across runs; all per-run state lives in the conversation.
type Runner struct {
	provider      provider.Provider
	maxIterations int
	retryConfig   retry.Config
	metrics       *metrics.Agent
}

// Option adjusts a Runner.
type Option func(*Runner)

// WithMaxIterations caps the loop. Non-positive values keep the
// default.
func WithMaxIterations(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

// WithRetryConfig replaces the provider retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(r *Runner) { r.retryConfig = cfg }
}

// NewRunner builds a Runner for the given provider.
func NewRunner(p provider.Provider, opts ...Option) (*Runner, error) {
	if p == nil {
		return nil, errors.New("provider is required")
	}
	r := &Runner{
		provider:      p,
		maxIterations: conversation.DefaultMaxIterations,
		retryConfig:   retry.DefaultConfig(),
		metrics:       metrics.NewAgent(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.retryConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return r, nil
}

// Run executes one task against ws and always returns a complete
// Result. The returned error is reserved for setup failures detected
// before the loop starts; once the loop is running, every failure is
// folded into the Result.
func (r *Runner) Run(ctx context.Context, task Task, ws *workspace.Workspace) (Result, error) {
	if err := task.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid task: %w", err)
	}
	if ws == nil {
		return Result{}, errors.New("workspace is required")
	}

	log := clog.FromContext(ctx).
		With("task_kind", string(task.Kind)).
		With("repo", task.Owner+"/"+task.Repo).
		With("branch", task.WorkBranch())
	ctx = clog.WithLogger(ctx, log)

	// Feedback that asks for nothing needs no model at all.
	if task.Kind == AddressFeedback && task.AllFeedbackPositive() {
		log.Info("All feedback is approving, skipping run")
		return Result{
			Success: true,
			Summary: "All feedback on the pull request is approving; no changes needed.",
			Branch:  task.WorkBranch(),
		}, nil
	}

	var registry *tool.Registry
	if task.Kind == ReviewPR {
		registry = tool.NewReviewRegistry(ws, task.Diff)
	} else {
		registry = tool.NewCodeRegistry(ws)
	}

	state := conversation.New(systemPrompt(task), taskPrompt(task), r.maxIterations)
	defs := registry.Definitions()

	ctx, run := runtrace.Start(ctx, string(task.Kind), r.provider.Model())
	var runErr error
	defer func() { run.End(runErr) }()

	log.With("run_id", run.ID()).With("max_iterations", state.MaxIterations()).Info("Starting agent run")

	changed := make(map[string]bool)
	var findings []Finding

	for {
		// Cancellation is honored between iterations; an in-flight
		// tool call runs to completion first.
		if err := ctx.Err(); err != nil {
			state.MarkTerminal()
			runErr = err
			log.Info("Run cancelled")
			return r.buildResult(task, state, changed, findings, resultOutcome{
				summary: "The run was cancelled before the model finished.",
				err:     err,
			}), nil
		}

		completion, err := retry.Do(ctx, r.retryConfig, "complete", r.provider.Retryable, func() (provider.Completion, error) {
			return r.provider.Complete(ctx, state.Messages(), defs)
		})
		if err != nil {
			state.MarkTerminal()
			runErr = err
			log.With("error", err).Error("Provider unreachable, ending run")
			return r.buildResult(task, state, changed, findings, resultOutcome{
				summary: "The model provider stayed unreachable; the run could not finish.",
				err:     fmt.Errorf("completing conversation: %w", err),
			}), nil
		}

		r.metrics.RecordTokens(ctx, r.provider.Model(), completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
		state.AppendAssistant(completion.Text, completion.ToolCalls)

		// A final answer with no tool calls ends the run.
		if len(completion.ToolCalls) == 0 {
			state.MarkTerminal()
			log.With("iterations", state.Iteration()).Info("Run finished")
			return r.buildResult(task, state, changed, findings, resultOutcome{
				success: true,
				summary: completion.Text,
			}), nil
		}

		// Dispatch sequentially in model order; a failed call does not
		// abort the rest of the turn.
		results := make([]tool.Result, 0, len(completion.ToolCalls))
		for _, call := range completion.ToolCalls {
			tc := run.StartToolCall(call.ID, call.Name)
			res := registry.Invoke(ctx, call)
			tc.End(string(res.Kind), res.Message)
			r.metrics.RecordToolCall(ctx, r.provider.Model(), call.Name, res.IsError())

			if path, ok := tool.MutatedPath(call, res); ok {
				changed[path] = true
			}
			if f, ok := reviewTestFailure(task, call, res); ok {
				findings = append(findings, f)
			}
			results = append(results, res)
		}
		state.AppendToolResults(results...)

		if !state.AdvanceIteration() {
			state.MarkTerminal()
			log.With("iterations", state.Iteration()).Warn("Run exhausted its iteration budget")
			summary := fmt.Sprintf("Run stopped: %s after %d iterations.", ExhaustionMarker, state.Iteration())
			if last := state.FinalAssistantText(); last != "" {
				summary += " Last model update: " + last
			}
			return r.buildResult(task, state, changed, findings, resultOutcome{
				summary:   summary,
				exhausted: true,
			}), nil
		}
	}
}

type resultOutcome struct {
	success   bool
	summary   string
	exhausted bool
	err       error
}

func (r *Runner) buildResult(task Task, state *conversation.State, changed map[string]bool, findings []Finding, outcome resultOutcome) Result {
	return Result{
		Success:      outcome.success,
		Summary:      outcome.summary,
		ChangedFiles: sortedPaths(changed),
		Branch:       task.WorkBranch(),
		Findings:     findings,
		Iterations:   state.Iteration(),
		Exhausted:    outcome.exhausted,
		Err:          outcome.err,
	}
}

// reviewTestFailure turns a failed run_test_command call in a review
// run into a required finding. The finding survives to the result no
// matter what the model's final text says.
func reviewTestFailure(task Task, call tool.Call, res tool.Result) (Finding, bool) {
	if task.Kind != ReviewPR || call.Name != "run_test_command" {
		return Finding{}, false
	}

	argv, _ := call.Args["command"].([]any)
	command := make([]string, 0, len(argv))
	for _, a := range argv {
		if s, ok := a.(string); ok {
			command = append(command, s)
		}
	}

	// Malformed calls are model mistakes, not test failures; a timeout
	// or a non-zero exit means the tests did not pass.
	if res.Kind == tool.KindTimeout {
		return failingTestFinding(command, -1, res.Message), true
	}
	if success, ok := res.Payload["success"].(bool); ok && !success {
		exitCode, _ := res.Payload["exit_code"].(int)
		stderr, _ := res.Payload["stderr"].(string)
		return failingTestFinding(command, exitCode, stderr), true
	}
	return Finding{}, false
}
