/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package anthropicprovider

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"

	"github.com/octoforge/octoforge/conversation"
	"github.com/octoforge/octoforge/tool"
)

func testDefinition(t *testing.T) tool.Definition {
	t.Helper()
	type args struct {
		Path string `json:"path" jsonschema:"description=File path,required"`
		Max  int    `json:"max,omitempty" jsonschema:"description=Limit"`
	}
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	return tool.Definition{
		Name:        "read_file",
		Description: "Read a file.",
		Schema:      reflector.Reflect(&args{}),
	}
}

func TestToolParam(t *testing.T) {
	tp, err := toolParam(testDefinition(t))
	if err != nil {
		t.Fatalf("toolParam: %v", err)
	}
	if tp.OfTool.Name != "read_file" {
		t.Errorf("Name = %q", tp.OfTool.Name)
	}
	props, ok := tp.OfTool.InputSchema.Properties.(map[string]any)
	if !ok || props["path"] == nil {
		t.Errorf("Properties = %#v, want path entry", tp.OfTool.InputSchema.Properties)
	}
	if len(tp.OfTool.InputSchema.Required) != 1 || tp.OfTool.InputSchema.Required[0] != "path" {
		t.Errorf("Required = %v, want [path]", tp.OfTool.InputSchema.Required)
	}
}

func TestBuildParamsRoles(t *testing.T) {
	p := &Provider{model: "claude-test", maxTokens: 100, temperature: 0.1}

	history := []conversation.Message{
		{Role: conversation.RoleSystem, Text: "be helpful"},
		{Role: conversation.RoleUser, Text: "fix the bug"},
		{Role: conversation.RoleAssistant, Text: "looking", ToolCalls: []tool.Call{
			{ID: "c1", Name: "read_file", Args: map[string]any{"path": "a.go"}},
		}},
		{Role: conversation.RoleTool, ToolResults: []tool.Result{
			{CallID: "c1", Name: "read_file", Payload: map[string]any{"content": "x"}},
		}},
	}

	params, err := p.buildParams(history, []tool.Definition{testDefinition(t)})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}

	if len(params.System) != 1 || params.System[0].Text != "be helpful" {
		t.Errorf("System = %+v", params.System)
	}
	// user, assistant, tool-result = 3 messages; system rides separately.
	if len(params.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(params.Messages))
	}
	if params.Messages[1].Content[1].OfToolUse == nil {
		t.Error("assistant turn lost its tool_use block")
	}
	if params.Messages[2].Content[0].OfToolResult == nil {
		t.Error("tool turn lost its tool_result block")
	}
	if len(params.Tools) != 1 {
		t.Errorf("len(Tools) = %d, want 1", len(params.Tools))
	}
}

func TestCompletionFromMessageConcatenatesText(t *testing.T) {
	msg := anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "First I read the file. "},
			{Type: "tool_use", ID: "c1", Name: "read_file", Input: json.RawMessage(`{"path":"a.go"}`)},
			{Type: "text", Text: "Then I fixed it."},
		},
	}

	completion, err := completionFromMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("completionFromMessage: %v", err)
	}

	if want := "First I read the file. Then I fixed it."; completion.Text != want {
		t.Errorf("Text = %q, want both text blocks in order", completion.Text)
	}
	if len(completion.ToolCalls) != 1 || completion.ToolCalls[0].Args["path"] != "a.go" {
		t.Errorf("ToolCalls = %+v", completion.ToolCalls)
	}
}

func TestCompletionFromMessageEmpty(t *testing.T) {
	if _, err := completionFromMessage(context.Background(), anthropic.Message{}); err == nil {
		t.Error("empty message should be an error")
	}
}

func TestResultText(t *testing.T) {
	text, err := resultText(tool.Result{CallID: "c1", Payload: map[string]any{"content": "hi"}})
	if err != nil {
		t.Fatalf("resultText: %v", err)
	}
	if !strings.Contains(text, `"content":"hi"`) {
		t.Errorf("text = %q", text)
	}

	text, err = resultText(tool.Result{CallID: "c2", Kind: tool.KindPathEscape, Message: "escape"})
	if err != nil {
		t.Fatalf("resultText: %v", err)
	}
	if !strings.Contains(text, "PATH_ESCAPE") {
		t.Errorf("error text = %q, want kind included", text)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "claude-test"); err == nil {
		t.Error("missing API key should fail")
	}
	if _, err := New("key", ""); err == nil {
		t.Error("missing model should fail")
	}
}
