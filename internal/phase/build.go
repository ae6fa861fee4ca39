package phase

import (
	"context"
	"fmt"

	"github.com/noscope-dev/noscope/internal/agent"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/plan"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/supervisor"
	"github.com/noscope-dev/noscope/internal/tokens"
	"github.com/noscope-dev/noscope/internal/tool"
)

// BuildResult is what the BUILD phase hands to HARDEN and HANDOFF.
type BuildResult struct {
	Tasks    []plan.Task
	Findings []agent.Finding
}

// RunBuild partitions planOutput's tasks across a bounded worker pool and
// runs them, alongside a continuous audit pass, until every task completes
// or the BUILD phase's time budget is exhausted.
func RunBuild(
	ctx context.Context,
	planOutput plan.Output,
	provider llm.Provider,
	dispatcher *tool.Dispatcher,
	toolCtx *tool.Context,
	d *deadline.Deadline,
	log *eventlog.Log,
	observer agent.Observer,
	tracker *tokens.Tracker,
	riskPolicy specfile.RiskPolicy,
) BuildResult {
	log.Emit(string(deadline.PhaseBuild), "phase.start", fmt.Sprintf("building %d tasks", len(planOutput.Tasks)), nil, nil)

	sup := &supervisor.Supervisor{
		Provider:   provider,
		Dispatcher: dispatcher,
		Context:    toolCtx,
		EventLog:   log,
		Deadline:   d,
		Observer:   observer,
		Tokens:     tracker,
		RiskPolicy: riskPolicy,
	}
	tasks, findings := sup.Run(ctx, planOutput.Tasks)

	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	log.Emit(string(deadline.PhaseBuild), "phase.complete",
		fmt.Sprintf("%d/%d tasks completed, %d audit findings", completed, len(tasks), len(findings)),
		map[string]any{"completed": completed, "total": len(tasks)}, nil)

	return BuildResult{Tasks: tasks, Findings: findings}
}
