package tool

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/noscope-dev/noscope/internal/redact"
)

const (
	maxLogString = 2000
)

// omitFields lists payload keys whose string values are replaced with a
// byte-count placeholder before being written to the event log, so large
// file contents and command output don't bloat events.jsonl.
var omitFields = map[string]struct{}{
	"content": {},
	"stdout":  {},
	"stderr":  {},
}

// Dispatcher registers tools by name and dispatches calls with schema
// validation, capability checks, and event-log hygiene.
type Dispatcher struct {
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{tools: make(map[string]Tool), schemas: make(map[string]*jsonschema.Schema)}
}

// Register adds a tool, keyed by its Name(), compiling its parameter schema
// up front. A tool whose declared schema doesn't compile is a programming
// error in the tool itself, so Register panics rather than deferring the
// failure to the first call.
func (d *Dispatcher) Register(t Tool) {
	d.tools[t.Name()] = t
	d.schemas[t.Name()] = compileSchema(t.Name(), t.ParametersSchema())
}

func compileSchema(name string, params map[string]any) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, params); err != nil {
		panic(fmt.Sprintf("tool %s: invalid parameter schema: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid parameter schema: %v", name, err))
	}
	return schema
}

// RegisterAll registers every tool in ts.
func (d *Dispatcher) RegisterAll(ts []Tool) {
	for _, t := range ts {
		d.Register(t)
	}
}

// Get returns the tool registered under name, or nil.
func (d *Dispatcher) Get(name string) Tool {
	return d.tools[name]
}

// Dispatch checks the caller's capability grant, logs the call and its
// result, and executes the tool.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any, tc *Context) Result {
	t, ok := d.tools[name]
	if !ok {
		return Err(fmt.Sprintf("unknown tool: %s", name), nil)
	}

	if schema := d.schemas[name]; schema != nil {
		if err := schema.Validate(toAnyMap(args)); err != nil {
			return Err(fmt.Sprintf("invalid arguments for %s: %v", name, err), nil)
		}
	}

	if !tc.Capabilities.Check(t.RequiredCapability()) {
		return Err(fmt.Sprintf("capability %q not granted for tool %q", t.RequiredCapability(), name), nil)
	}

	tc.EventLog.Emit(
		string(tc.Deadline.CurrentPhase()),
		"tool."+name,
		"calling "+name,
		map[string]any{"tool": name, "args": sanitizeForLog(toAnyMap(args), tc.Secrets)},
		nil,
	)

	result := t.Execute(ctx, args, tc)

	tc.EventLog.Emit(
		string(tc.Deadline.CurrentPhase()),
		"tool."+name+".result",
		fmt.Sprintf("%s -> %s", name, result.Status),
		map[string]any{"tool": name},
		map[string]any{
			"status": string(result.Status),
			"data":   sanitizeForLog(toAnyMap(result.Data), tc.Secrets),
		},
	)

	return result
}

// Schemas converts every registered tool into an LLM tool-call schema.
func (d *Dispatcher) Schemas() []Schema {
	out := make([]Schema, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, Schema{Name: t.Name(), Description: t.Description(), Parameters: t.ParametersSchema()})
	}
	return out
}

func toAnyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func sanitizeForLog(payload any, secrets map[string]string) any {
	return trimPayload(redact.Structured(payload, secrets))
}

func trimPayload(payload any) any {
	switch v := payload.(type) {
	case map[string]any:
		trimmed := make(map[string]any, len(v))
		for key, value := range v {
			if _, omit := omitFields[key]; omit {
				if s, ok := value.(string); ok {
					trimmed[key] = fmt.Sprintf("[omitted %d chars]", len(s))
					continue
				}
			}
			trimmed[key] = trimPayload(value)
		}
		return trimmed
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = trimPayload(item)
		}
		return out
	case string:
		if len(v) > maxLogString {
			return v[:maxLogString] + "... [truncated]"
		}
		return v
	default:
		return payload
	}
}
