// Package tool defines the Tool interface, execution context, and result
// shape shared by every filesystem, shell, git, and sandbox tool.
package tool

import (
	"context"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
)

// Context is the shared state passed to every tool execution.
type Context struct {
	Workspace    string
	Capabilities *capability.Store
	EventLog     *eventlog.Log
	Deadline     *deadline.Deadline
	Secrets      map[string]string
	DangerMode   bool
}

// Status is the outcome of a tool execution.
type Status string

// The two possible tool execution outcomes.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result carries the outcome of a tool execution: a status, structured
// data for downstream consumers, and a display string shown to the model
// and, optionally, the user.
type Result struct {
	Status  Status
	Data    map[string]any
	Display string
}

// OK builds a successful Result.
func OK(display string, data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{Status: StatusOK, Data: data, Display: display}
}

// Err builds a failed Result whose display is the error message.
func Err(message string, data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{Status: StatusError, Data: data, Display: message}
}

// Schema describes a tool for inclusion in an LLM tool-call schema list.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Tool is implemented by every agent-callable capability: filesystem
// operations, shell execution, git plumbing, and sandboxed variants.
type Tool interface {
	Name() string
	Description() string
	RequiredCapability() capability.Capability
	ParametersSchema() map[string]any
	Execute(ctx context.Context, args map[string]any, tc *Context) Result
}
