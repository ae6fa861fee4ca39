// Package shelltool implements the exec_command tool: a host shell
// invocation confined to the workspace directory, with a scrubbed
// environment, clamped timeout, and output truncation.
package shelltool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/redact"
	"github.com/noscope-dev/noscope/internal/safety"
	"github.com/noscope-dev/noscope/internal/tool"
)

// MaxOutputLength is the per-stream cap on captured stdout/stderr before
// truncation.
const MaxOutputLength = 50_000

var explicitSensitiveEnvKeys = map[string]struct{}{
	"ANTHROPIC_API_KEY": {}, "OPENAI_API_KEY": {},
	"NOSCOPE_ANTHROPIC_API_KEY": {}, "NOSCOPE_OPENAI_API_KEY": {},
	"AWS_ACCESS_KEY_ID": {}, "AWS_SECRET_ACCESS_KEY": {}, "AWS_SESSION_TOKEN": {},
	"AZURE_OPENAI_API_KEY": {}, "GOOGLE_API_KEY": {},
	"GITHUB_TOKEN": {}, "GH_TOKEN": {}, "GITLAB_TOKEN": {},
	"NPM_TOKEN": {}, "PYPI_TOKEN": {}, "HF_TOKEN": {}, "SLACK_BOT_TOKEN": {},
}

var sensitiveEnvKeyPattern = regexp.MustCompile(
	`(?i)(?:^|_)(?:API[_-]?KEY|TOKEN|SECRET|PASSWORD|CREDENTIALS?|PRIVATE[_-]?KEY|COOKIE|AUTH)(?:$|_)`,
)

// BuildExecutionEnv strips sensitive credentials and noscope's own Python
// virtual-environment markers from the process environment so shell tool
// invocations can't see secrets or accidentally inherit noscope's own
// interpreter.
func BuildExecutionEnv(base []string) []string {
	if base == nil {
		base = os.Environ()
	}
	env := make([]string, 0, len(base))
	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if key == "VIRTUAL_ENV" {
			continue
		}
		if _, explicit := explicitSensitiveEnvKeys[key]; explicit {
			continue
		}
		if sensitiveEnvKeyPattern.MatchString(key) {
			continue
		}
		env = append(env, kv)
	}
	return cleanPath(env)
}

func cleanPath(env []string) []string {
	for i, kv := range env {
		if !strings.HasPrefix(kv, "PATH=") {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(kv, "PATH="), string(os.PathListSeparator))
		cleaned := parts[:0]
		for _, p := range parts {
			if !strings.Contains(p, ".venv") {
				cleaned = append(cleaned, p)
			}
		}
		env[i] = "PATH=" + strings.Join(cleaned, string(os.PathListSeparator))
	}
	return env
}

// Shell executes a shell command within the workspace on the host.
type Shell struct{}

// Name returns the tool identifier used in LLM tool-call schemas.
func (Shell) Name() string { return "exec_command" }

// Description is a short human-readable summary shown to the model.
func (Shell) Description() string { return "Execute a shell command within the workspace" }

// RequiredCapability returns the capability gating this tool.
func (Shell) RequiredCapability() capability.Capability { return capability.ShellExec }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Shell) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string", "description": "Shell command to execute"},
			"cwd":     map[string]any{"type": "string", "description": "Working directory (relative to workspace)", "default": "."},
			"timeout": map[string]any{"type": "integer", "description": "Timeout in seconds", "default": 60},
		},
		"required": []string{"command"},
	}
}

// Execute runs args["command"] through /bin/sh, clamping its timeout to the
// lesser of the caller's request, a 300s hard cap, and 15% of the time
// remaining in the run (that last cap is never below 30s).
func (Shell) Execute(ctx context.Context, args map[string]any, tc *tool.Context) tool.Result {
	command, _ := args["command"].(string)

	requested := 60
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		requested = int(v)
	}
	hardCap := 300
	remaining := tc.Deadline.Remaining().Seconds()
	dynamicCap := int(remaining * 0.15)
	if dynamicCap < 30 {
		dynamicCap = 30
	}
	timeout := minInt(requested, hardCap, dynamicCap)

	if denial := safety.CheckCommand(command, tc.DangerMode); denial != "" {
		return tool.Err(fmt.Sprintf("command denied: %s", denial), nil)
	}

	cwd := tc.Workspace
	if rawCwd, ok := args["cwd"].(string); ok && rawCwd != "." && rawCwd != "" {
		resolved, err := safety.ResolvePath(rawCwd, tc.Workspace)
		if err != nil {
			return tool.Err(err.Error(), nil)
		}
		if info, statErr := os.Stat(resolved); statErr != nil || !info.IsDir() {
			return tool.Err(fmt.Sprintf("working directory not found: %s", rawCwd), nil)
		}
		cwd = resolved
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = cwd
	cmd.Env = BuildExecutionEnv(nil)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return tool.Err(fmt.Sprintf("command timed out after %ds", timeout), nil)
	}

	stdout := redact.All(stdoutBuf.String(), tc.Secrets)
	stderr := redact.All(stderrBuf.String(), tc.Secrets)
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return tool.Err(fmt.Sprintf("failed to execute: %v", err), nil)
	}

	stdout = truncate(stdout)
	stderr = truncate(stderr)

	display := stdout
	if stderr != "" {
		display += "\n[stderr]\n" + stderr
	}

	data := map[string]any{"stdout": stdout, "stderr": stderr, "exit_code": exitCode}
	if exitCode != 0 {
		return tool.Result{Status: tool.StatusError, Data: data, Display: fmt.Sprintf("exit code %d\n%s", exitCode, display)}
	}
	return tool.OK(display, data)
}

func truncate(s string) string {
	if len(s) > MaxOutputLength {
		return s[:MaxOutputLength] + "\n... (truncated)"
	}
	return s
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
