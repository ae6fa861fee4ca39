// Package sandbox runs the exec_command shell tool inside an isolated
// Docker container instead of directly on the host. Filesystem tools are
// not provided here; they act on the bind-mounted workspace from the host.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/redact"
	"github.com/noscope-dev/noscope/internal/safety"
	"github.com/noscope-dev/noscope/internal/tool"
)

// DefaultImage is the container image commands execute in when no override
// is supplied.
const DefaultImage = "python:3.12-slim"

// Sandbox manages the lifecycle of a single long-running Docker container
// that mirrors the workspace at /workspace.
type Sandbox struct {
	mu          sync.Mutex
	cli         *client.Client
	workspace   string
	image       string
	containerID string
}

// New constructs a Sandbox bound to workspace, using image (DefaultImage
// when empty). It does not start the container until EnsureRunning is
// called.
func New(workspace, image string) (*Sandbox, error) {
	if image == "" {
		image = DefaultImage
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Sandbox{cli: cli, workspace: workspace, image: image}, nil
}

// EnsureRunning starts the sandbox container if it isn't already running
// and returns its container ID.
func (s *Sandbox) EnsureRunning(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containerID != "" {
		return s.containerID, nil
	}

	if _, err := s.cli.ImagePull(ctx, s.image, image.PullOptions{}); err != nil {
		// Best-effort: the image may already be present locally.
		_ = err
	}

	resp, err := s.cli.ContainerCreate(ctx, &container.Config{
		Image:      s.image,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: "/workspace",
	}, &container.HostConfig{
		Binds: []string{s.workspace + ":/workspace"},
	}, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("create sandbox container: %w", err)
	}
	if err := s.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("start sandbox container: %w", err)
	}
	s.containerID = resp.ID
	return s.containerID, nil
}

// Execute runs command inside the sandbox container and returns its exit
// code, stdout, and stderr.
func (s *Sandbox) Execute(ctx context.Context, command string, timeout time.Duration, cwd string) (int, string, string, error) {
	containerID, err := s.EnsureRunning(ctx)
	if err != nil {
		return 0, "", "", err
	}
	if cwd == "" {
		cwd = "/workspace"
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execResp, err := s.cli.ContainerExecCreate(runCtx, containerID, container.ExecOptions{
		Cmd:          []string{"bash", "-c", command},
		WorkingDir:   cwd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, "", "", fmt.Errorf("create exec: %w", err)
	}

	attach, err := s.cli.ContainerExecAttach(runCtx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return 0, "", "", fmt.Errorf("attach exec: %w", err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	_, copyErr := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
	if copyErr != nil && copyErr != io.EOF {
		return 0, "", "", fmt.Errorf("read exec output: %w", copyErr)
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return 124, "", fmt.Sprintf("command timed out after %s", timeout), nil
	}

	inspect, err := s.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return 0, "", "", fmt.Errorf("inspect exec: %w", err)
	}

	return inspect.ExitCode, stdout.String(), stderr.String(), nil
}

// Stop kills and removes the sandbox container. Writes made inside the
// container are already in the bind-mounted workspace.
func (s *Sandbox) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containerID == "" {
		return nil
	}
	timeout := 5
	_ = s.cli.ContainerStop(ctx, s.containerID, container.StopOptions{Timeout: &timeout})
	err := s.cli.ContainerRemove(ctx, s.containerID, container.RemoveOptions{Force: true})
	s.containerID = ""
	return err
}

// Shell is the exec_command tool variant that runs inside a Sandbox
// instead of directly on the host.
type Shell struct {
	sandbox *Sandbox
}

// NewShell wraps sandbox as a Tool.
func NewShell(sandbox *Sandbox) Shell { return Shell{sandbox: sandbox} }

// Name returns the tool identifier used in LLM tool-call schemas.
func (Shell) Name() string { return "exec_command" }

// Description is a short human-readable summary shown to the model.
func (Shell) Description() string { return "Execute a shell command inside a Docker sandbox" }

// RequiredCapability returns the capability gating this tool.
func (Shell) RequiredCapability() capability.Capability { return capability.ShellExec }

// ParametersSchema returns the JSON Schema describing accepted arguments.
func (Shell) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string", "description": "Shell command to execute"},
			"cwd":     map[string]any{"type": "string", "description": "Working directory inside container", "default": "/workspace"},
			"timeout": map[string]any{"type": "integer", "description": "Timeout in seconds", "default": 60},
		},
		"required": []string{"command"},
	}
}

// Execute runs args["command"] inside the sandbox container, after the
// same safety deny-list check the host shell tool applies.
func (s Shell) Execute(ctx context.Context, args map[string]any, tc *tool.Context) tool.Result {
	command, _ := args["command"].(string)
	timeout := 60
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		timeout = int(v)
	}
	if timeout > 300 {
		timeout = 300
	}
	cwd, _ := args["cwd"].(string)
	if cwd == "" {
		cwd = "/workspace"
	}

	if denial := safety.CheckCommand(command, tc.DangerMode); denial != "" {
		return tool.Err(fmt.Sprintf("command denied: %s", denial), nil)
	}

	exitCode, stdout, stderr, err := s.sandbox.Execute(ctx, command, time.Duration(timeout)*time.Second, cwd)
	if err != nil {
		return tool.Err(err.Error(), nil)
	}

	stdout = redact.All(stdout, tc.Secrets)
	stderr = redact.All(stderr, tc.Secrets)

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
