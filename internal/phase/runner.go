package phase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/noscope-dev/noscope/internal/agent"
	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/contract"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/tokens"
	"github.com/noscope-dev/noscope/internal/tool"
	"github.com/noscope-dev/noscope/internal/tool/fstools"
	"github.com/noscope-dev/noscope/internal/tool/gittools"
	"github.com/noscope-dev/noscope/internal/tool/shelltool"
)

// Runner drives a single run through its six phases. HANDOFF is guaranteed
// to execute even if an earlier phase panics, since it carries the only
// output a human operator can act on.
type Runner struct {
	Spec        *specfile.Spec
	Provider    llm.Provider
	RunDir      *eventlog.RunDir
	Log         *eventlog.Log
	Deadline    *deadline.Deadline
	Observer    agent.Observer
	Tokens      *tokens.Tracker
	AutoApprove bool
	DangerMode  bool
	Workspace   string
	Secrets     map[string]string
	Stdin       io.Reader
	Stdout      io.Writer
}

// Outcome is the terminal state of a run, always populated with at least a
// handoff report.
type Outcome struct {
	Contract      contract.Document
	Build         BuildResult
	HardenResults []CheckResult
	VerifyResults []JudgedCheck
	HandoffReport string
}

// Run executes PLAN, REQUEST, BUILD, HARDEN, and VERIFY in sequence,
// advancing r.Deadline between each, then always runs HANDOFF.
func (r *Runner) Run(ctx context.Context) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Emit(string(deadline.PhaseHandoff), "run.panic", fmt.Sprintf("recovered: %v", rec), nil, nil)
		}
		r.Deadline.AdvancePhase(deadline.PhaseHandoff)
		outcome.HandoffReport = RunHandoff(ctx, outcome.Contract, outcome.Build, outcome.HardenResults, outcome.VerifyResults, r.Provider, r.RunDir, r.Log, r.Tokens)
	}()

	planOutput := RunPlan(ctx, r.Spec, r.Provider, r.RunDir, r.Log, r.Tokens)

	r.Deadline.AdvancePhase(deadline.PhaseRequest)
	grants := RunRequest(r.Stdin, r.Stdout, planOutput.RequestedCapabilities, r.AutoApprove, r.Log)

	doc, err := contract.Generate(r.Spec, planOutput, grants.Grants(), r.RunDir.ContractPath())
	if err != nil {
		r.Log.Emit(string(deadline.PhaseRequest), "contract.error", err.Error(), nil, nil)
	}
	outcome.Contract = doc

	workspace := r.Workspace
	if workspace == "" {
		workspace = "."
	}
	toolCtx := &tool.Context{
		Workspace:    workspace,
		Capabilities: grants,
		EventLog:     r.Log,
		Deadline:     r.Deadline,
		Secrets:      r.Secrets,
		DangerMode:   r.DangerMode,
	}
	dispatcher := buildDispatcher(grants)

	r.Deadline.AdvancePhase(deadline.PhaseBuild)
	outcome.Build = RunBuild(ctx, planOutput, r.Provider, dispatcher, toolCtx, r.Deadline, r.Log, r.Observer, r.Tokens, r.Spec.RiskPolicy)

	r.Deadline.AdvancePhase(deadline.PhaseHarden)
	outcome.HardenResults = RunHarden(ctx, r.Spec.Acceptance, dispatcher, toolCtx, r.Log)

	r.Deadline.AdvancePhase(deadline.PhaseVerify)
	outcome.VerifyResults = RunVerify(ctx, r.Spec.Acceptance, workspaceTree(dispatcher, toolCtx), r.Provider, r.Log, r.Tokens)

	return outcome
}

// buildDispatcher registers every tool whose required capability was
// granted. Ungranted tools are simply not registered, so a call to them
// from the model surfaces as "unknown tool" rather than a capability
// denial — matching the closed-world model where unrequested capabilities
// are invisible, not merely refused.
func buildDispatcher(grants *capability.Store) *tool.Dispatcher {
	d := tool.NewDispatcher()
	if grants.Check(capability.WorkspaceRW) {
		d.RegisterAll(fstools.All())
	}
	if grants.Check(capability.ShellExec) {
		d.Register(shelltool.Shell{})
	}
	if grants.Check(capability.Git) {
		d.RegisterAll(gittools.All())
	}
	return d
}

func workspaceTree(dispatcher *tool.Dispatcher, toolCtx *tool.Context) string {
	if dispatcher.Get("list_directory") == nil {
		return "(workspace_rw not granted; no tree available)"
	}
	result := dispatcher.Dispatch(context.Background(), "list_directory", map[string]any{"path": "."}, toolCtx)
	if result.Status == tool.StatusError {
		return "(could not list workspace)"
	}
	var b strings.Builder
	b.WriteString(result.Display)
	return b.String()
}
