// Package fstools implements the workspace-scoped filesystem tools: read,
// write, list, and mkdir.
package fstools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/safety"
	"github.com/noscope-dev/noscope/internal/tool"
)

// ReadFile reads a file's contents within the workspace.
type ReadFile struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (ReadFile) Name() string { return "read_file" }

// Description is a short human-readable summary shown to the model.
func (ReadFile) Description() string { return "Read the contents of a file within the workspace" }

// RequiredCapability returns the capability gating this tool.
func (ReadFile) RequiredCapability() capability.Capability { return capability.WorkspaceRW }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (ReadFile) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "File path relative to workspace"},
		},
		"required": []string{"path"},
	}
}

// Execute reads the requested file, rejecting binary content.
func (ReadFile) Execute(_ context.Context, args map[string]any, tc *tool.Context) tool.Result {
	rawPath, _ := args["path"].(string)
	path, err := safety.ResolvePath(rawPath, tc.Workspace)
	if err != nil {
		return tool.Err(err.Error(), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return tool.Err(fmt.Sprintf("file not found: %s", rawPath), nil)
	}
	if info.IsDir() {
		return tool.Err(fmt.Sprintf("not a file: %s", rawPath), nil)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return tool.Err(fmt.Sprintf("cannot read file: %s", rawPath), nil)
	}
	if !utf8.Valid(content) {
		return tool.Err(fmt.Sprintf("cannot read binary file: %s", rawPath), nil)
	}
	text := string(content)
	return tool.OK(text, map[string]any{"content": text, "path": path})
}

// WriteFile writes or creates a file within the workspace.
type WriteFile struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (WriteFile) Name() string { return "write_file" }

// Description is a short human-readable summary shown to the model.
func (WriteFile) Description() string { return "Write or create a file within the workspace" }

// RequiredCapability returns the capability gating this tool.
func (WriteFile) RequiredCapability() capability.Capability { return capability.WorkspaceRW }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (WriteFile) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "File path relative to workspace"},
			"content": map[string]any{"type": "string", "description": "File content to write"},
		},
		"required": []string{"path", "content"},
	}
}

// Execute writes args["content"] to args["path"], creating parent
// directories as needed.
func (WriteFile) Execute(_ context.Context, args map[string]any, tc *tool.Context) tool.Result {
	rawPath, _ := args["path"].(string)
	content, _ := args["content"].(string)
	path, err := safety.ResolvePath(rawPath, tc.Workspace)
	if err != nil {
		return tool.Err(err.Error(), nil)
	}
	if err := os.MkdirAll(parentDir(path), 0o755); err != nil {
		return tool.Err(err.Error(), nil)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return tool.Err(err.Error(), nil)
	}
	return tool.OK(fmt.Sprintf("wrote %s", path), map[string]any{"path": path})
}

// ListDirectory lists the contents of a directory within the workspace.
type ListDirectory struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (ListDirectory) Name() string { return "list_directory" }

// Description is a short human-readable summary shown to the model.
func (ListDirectory) Description() string { return "List contents of a directory within the workspace" }

// RequiredCapability returns the capability gating this tool.
func (ListDirectory) RequiredCapability() capability.Capability { return capability.WorkspaceRW }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (ListDirectory) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Directory path relative to workspace", "default": "."},
		},
	}
}

// Execute lists entries under args["path"] (default "."), directories first.
func (ListDirectory) Execute(_ context.Context, args map[string]any, tc *tool.Context) tool.Result {
	rawPath, ok := args["path"].(string)
	if !ok || rawPath == "" {
		rawPath = "."
	}
	path, err := safety.ResolvePath(rawPath, tc.Workspace)
	if err != nil {
		return tool.Err(err.Error(), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return tool.Err(fmt.Sprintf("directory not found: %s", rawPath), nil)
	}
	if !info.IsDir() {
		return tool.Err(fmt.Sprintf("not a directory: %s", rawPath), nil)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return tool.Err(err.Error(), nil)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})
	lines := make([]string, 0, len(entries))
	names := make([]any, 0, len(entries))
	for _, e := range entries {
		prefix := "f "
		if e.IsDir() {
			prefix = "d "
		}
		lines = append(lines, prefix+e.Name())
		names = append(names, e.Name())
	}
	display := "(empty directory)"
	if len(lines) > 0 {
		display = strings.Join(lines, "\n")
	}
	return tool.OK(display, map[string]any{"entries": names})
}

// CreateDirectory creates a directory (and its parents) within the
// workspace.
type CreateDirectory struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (CreateDirectory) Name() string { return "create_directory" }

// Description is a short human-readable summary shown to the model.
func (CreateDirectory) Description() string {
	return "Create a directory (and parents) within the workspace"
}

// RequiredCapability returns the capability gating this tool.
func (CreateDirectory) RequiredCapability() capability.Capability { return capability.WorkspaceRW }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (CreateDirectory) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Directory path relative to workspace"},
		},
		"required": []string{"path"},
	}
}

// Execute creates args["path"] and any missing parents.
func (CreateDirectory) Execute(_ context.Context, args map[string]any, tc *tool.Context) tool.Result {
	rawPath, _ := args["path"].(string)
	path, err := safety.ResolvePath(rawPath, tc.Workspace)
	if err != nil {
		return tool.Err(err.Error(), nil)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return tool.Err(err.Error(), nil)
	}
	return tool.OK(fmt.Sprintf("created %s", path), map[string]any{"path": path})
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, os.PathSeparator)
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

// All returns the standard, host-executed filesystem tool set.
func All() []tool.Tool {
	return []tool.Tool{ReadFile{}, WriteFile{}, ListDirectory{}, CreateDirectory{}}
}
