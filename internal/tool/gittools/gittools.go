// Package gittools implements the git plumbing tools: init, status, add,
// commit, and diff, each a thin wrapper over the system git binary.
package gittools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/tool"
)

func runGit(ctx context.Context, cwd string, timeout time.Duration, args ...string) (int, string, string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, "git", args...)
	cmd.Dir = cwd
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
		err = nil
	}
	return exitCode, stdout.String(), stderr.String(), err
}

// Init initializes a git repository in the workspace.
type Init struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (Init) Name() string { return "git_init" }

// Description is a short human-readable summary shown to the model.
func (Init) Description() string { return "Initialize a git repository in the workspace" }

// RequiredCapability returns the capability gating this tool.
func (Init) RequiredCapability() capability.Capability { return capability.Git }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Init) ParametersSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute runs `git init`.
func (Init) Execute(ctx context.Context, _ map[string]any, tc *tool.Context) tool.Result {
	code, stdout, stderr, err := runGit(ctx, tc.Workspace, 30*time.Second, "init")
	if err != nil || code != 0 {
		return tool.Err(fmt.Sprintf("git init failed: %s", stderr), nil)
	}
	return tool.OK(strings.TrimSpace(stdout), nil)
}

// Status shows the working tree status.
type Status struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (Status) Name() string { return "git_status" }

// Description is a short human-readable summary shown to the model.
func (Status) Description() string { return "Show the working tree status" }

// RequiredCapability returns the capability gating this tool.
func (Status) RequiredCapability() capability.Capability { return capability.Git }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Status) ParametersSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute runs `git status --short`.
func (Status) Execute(ctx context.Context, _ map[string]any, tc *tool.Context) tool.Result {
	code, stdout, stderr, err := runGit(ctx, tc.Workspace, 30*time.Second, "status", "--short")
	if err != nil || code != 0 {
		return tool.Err(fmt.Sprintf("git status failed: %s", stderr), nil)
	}
	display := strings.TrimSpace(stdout)
	if display == "" {
		display = "(clean)"
	}
	return tool.OK(display, nil)
}

// Add stages files for commit.
type Add struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (Add) Name() string { return "git_add" }

// Description is a short human-readable summary shown to the model.
func (Add) Description() string { return "Stage files for commit" }

// RequiredCapability returns the capability gating this tool.
func (Add) RequiredCapability() capability.Capability { return capability.Git }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Add) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"paths": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "File paths to stage (use '.' for all)"},
		},
		"required": []string{"paths"},
	}
}

// Execute runs `git add <paths...>`.
func (Add) Execute(ctx context.Context, args map[string]any, tc *tool.Context) tool.Result {
	raw, _ := args["paths"].([]any)
	paths := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			paths = append(paths, s)
		}
	}
	gitArgs := append([]string{"add"}, paths...)
	code, _, stderr, err := runGit(ctx, tc.Workspace, 30*time.Second, gitArgs...)
	if err != nil || code != 0 {
		return tool.Err(fmt.Sprintf("git add failed: %s", stderr), nil)
	}
	return tool.OK(fmt.Sprintf("staged: %s", strings.Join(paths, ", ")), nil)
}

// Commit creates a git commit.
type Commit struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (Commit) Name() string { return "git_commit" }

// Description is a short human-readable summary shown to the model.
func (Commit) Description() string { return "Create a git commit" }

// RequiredCapability returns the capability gating this tool.
func (Commit) RequiredCapability() capability.Capability { return capability.Git }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Commit) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "description": "Commit message"},
		},
		"required": []string{"message"},
	}
}

// Execute runs `git commit -m <message>`.
func (Commit) Execute(ctx context.Context, args map[string]any, tc *tool.Context) tool.Result {
	message, _ := args["message"].(string)
	code, stdout, stderr, err := runGit(ctx, tc.Workspace, 30*time.Second, "commit", "-m", message)
	if err != nil || code != 0 {
		return tool.Err(fmt.Sprintf("git commit failed: %s", stderr), nil)
	}
	return tool.OK(strings.TrimSpace(stdout), nil)
}

// Diff shows changes in the working tree.
type Diff struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (Diff) Name() string { return "git_diff" }

// Description is a short human-readable summary shown to the model.
func (Diff) Description() string { return "Show changes in the working tree" }

// RequiredCapability returns the capability gating this tool.
func (Diff) RequiredCapability() capability.Capability { return capability.Git }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Diff) ParametersSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute runs `git diff`.
func (Diff) Execute(ctx context.Context, _ map[string]any, tc *tool.Context) tool.Result {
	code, stdout, stderr, err := runGit(ctx, tc.Workspace, 30*time.Second, "diff")
	if err != nil || code != 0 {
		return tool.Err(fmt.Sprintf("git diff failed: %s", stderr), nil)
	}
	display := strings.TrimSpace(stdout)
	if display == "" {
		display = "(no changes)"
	}
	return tool.OK(display, nil)
}

// All returns the standard git tool set.
func All() []tool.Tool {
	return []tool.Tool{Init{}, Status{}, Add{}, Commit{}, Diff{}}
}
