/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/octoforge/octoforge/tool/params"
)

// ErrorKind classifies a failed tool invocation. The kind travels back
// to the model inside the Result; it never surfaces as a Go error.
type ErrorKind string

const (
	KindUnknownTool    ErrorKind = "UNKNOWN_TOOL"
	KindInvalidArgs    ErrorKind = "INVALID_ARGS"
	KindExecutionError ErrorKind = "EXECUTION_ERROR"
	KindTimeout        ErrorKind = "TIMEOUT"
	KindPathEscape     ErrorKind = "PATH_ESCAPE"
)

// Call is a provider-independent representation of one tool call
// requested by the model.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Result is the outcome of one Call. Exactly one of Payload or
// Kind/Message is populated; either way the result is appended to the
// conversation so the model sees every outcome.
type Result struct {
	CallID  string
	Name    string
	Payload map[string]any
	Kind    ErrorKind
	Message string
}

// IsError reports whether the invocation failed.
func (r Result) IsError() bool { return r.Kind != "" }

// Definition describes a tool to the model: its name, what it does, and
// the JSON schema of its arguments.
type Definition struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Tool binds a Definition to its handler. Handlers return a payload map
// on success; errors are classified by the registry, so a handler only
// has to wrap the sentinel that matches the failure.
type Tool struct {
	Def     Definition
	Handler func(ctx context.Context, call Call) (map[string]any, error)
}

// ErrInvalidArguments marks argument extraction failures so the
// registry reports them as INVALID_ARGS rather than EXECUTION_ERROR.
var ErrInvalidArguments = errors.New("invalid tool arguments")

func required[T any](call Call, name string) (T, error) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return v, nil
}

func optional[T any](call Call, name string, defaultValue T) (T, error) {
	v, err := params.ExtractOptional[T](call.Args, name, defaultValue)
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return v, nil
}

func requiredStrings(call Call, name string) ([]string, error) {
	v, err := params.ExtractStrings(call.Args, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return v, nil
}

// mutatingTools names the calls whose success changes workspace files.
var mutatingTools = map[string]bool{
	"create_file": true,
	"update_file": true,
	"delete_file": true,
}

// MutatedPath reports the workspace-relative path changed by a
// successful mutating call, for changed-file accounting.
func MutatedPath(call Call, res Result) (string, bool) {
	if res.IsError() || !mutatingTools[call.Name] {
		return "", false
	}
	path, ok := call.Args["path"].(string)
	return path, ok && path != ""
}
