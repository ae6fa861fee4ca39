// Package phase implements the six sequential phases of a run — PLAN,
// REQUEST, BUILD, HARDEN, VERIFY, HANDOFF — and the Runner that sequences
// them against a shared Deadline.
package phase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/plan"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/tokens"
)

// RunPlan asks the provider for a build plan, persists it to plan.json, and
// returns it. On failure it logs the error and returns plan.Empty() rather
// than aborting, so later phases (especially HANDOFF) still run.
func RunPlan(ctx context.Context, spec *specfile.Spec, provider llm.Provider, runDir *eventlog.RunDir, log *eventlog.Log, tracker *tokens.Tracker) plan.Output {
	log.Emit(string(deadline.PhasePlan), "phase.start", "generating build plan", nil, nil)

	output, err := plan.Generate(ctx, spec, provider, tracker)
	if err != nil {
		log.Emit(string(deadline.PhasePlan), "phase.error", err.Error(), nil, nil)
		return plan.Empty()
	}

	if data, err := json.MarshalIndent(output, "", "  "); err == nil {
		_ = os.WriteFile(runDir.PlanPath(), data, 0o644)
	}

	log.Emit(string(deadline.PhasePlan), "phase.complete",
		fmt.Sprintf("planned %d tasks, %d requested capabilities", len(output.Tasks), len(output.RequestedCapabilities)),
		map[string]any{"task_count": len(output.Tasks)}, nil)
	return output
}
