/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package conversation

import "github.com/octoforge/octoforge/tool"

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// DefaultMaxIterations bounds a run when the caller does not choose a
// limit.
const DefaultMaxIterations = 20

// Message is one entry in the history. Assistant messages may carry
// tool calls; tool messages carry the results answering them. Every
// tool result is appended regardless of success so the model sees each
// outcome.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []tool.Call
	ToolResults []tool.Result
}

// State is the full record of one run: the ordered messages, the
// iteration counter against its fixed maximum, and the terminal flag.
type State struct {
	messages      []Message
	iteration     int
	maxIterations int
	terminal      bool
}

// New seeds a State with the system prompt and the task description.
// maxIterations falls back to DefaultMaxIterations when non-positive.
func New(systemPrompt, taskPrompt string, maxIterations int) *State {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &State{
		messages: []Message{
			{Role: RoleSystem, Text: systemPrompt},
			{Role: RoleUser, Text: taskPrompt},
		},
		maxIterations: maxIterations,
	}
}

// Messages returns the history in order. Callers must not mutate it.
func (s *State) Messages() []Message { return s.messages }

// Iteration returns the number of completed loop iterations.
func (s *State) Iteration() int { return s.iteration }

// MaxIterations returns the fixed per-run iteration cap.
func (s *State) MaxIterations() int { return s.maxIterations }

// Terminal reports whether the run has ended.
func (s *State) Terminal() bool { return s.terminal }

// MarkTerminal ends the run. Appends after this point are programming
// errors and are dropped.
func (s *State) MarkTerminal() { s.terminal = true }

// Exhausted reports whether the iteration cap has been reached.
func (s *State) Exhausted() bool { return s.iteration >= s.maxIterations }

// AppendAssistant records a model turn: its text and any tool calls it
// requested.
func (s *State) AppendAssistant(text string, calls []tool.Call) {
	if s.terminal {
		return
	}
	s.messages = append(s.messages, Message{Role: RoleAssistant, Text: text, ToolCalls: calls})
}

// AppendToolResults records the results of one assistant turn's tool
// calls, in dispatch order.
func (s *State) AppendToolResults(results ...tool.Result) {
	if s.terminal || len(results) == 0 {
		return
	}
	s.messages = append(s.messages, Message{Role: RoleTool, ToolResults: results})
}

// AdvanceIteration counts one completed iteration and reports whether
// the run may continue.
func (s *State) AdvanceIteration() bool {
	s.iteration++
	return s.iteration < s.maxIterations
}

// FinalAssistantText returns the text of the last assistant message,
// or "" if the model never produced one.
func (s *State) FinalAssistantText() string {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleAssistant && s.messages[i].Text != "" {
			return s.messages[i].Text
		}
	}
	return ""
}
