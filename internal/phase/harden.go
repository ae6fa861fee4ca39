package phase

import (
	"context"
	"fmt"

	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/tool"
)

// CheckResult is the outcome of running a single acceptance check.
type CheckResult struct {
	Check  specfile.AcceptanceCheck
	Passed bool
	Output string
}

// RunHarden executes every "cmd:"-prefixed acceptance check against the
// workspace via exec_command. Informational checks (no "cmd:" prefix) are
// left for VERIFY, which judges them with the LLM instead of a shell exit
// code.
func RunHarden(ctx context.Context, checks []specfile.AcceptanceCheck, dispatcher *tool.Dispatcher, toolCtx *tool.Context, log *eventlog.Log) []CheckResult {
	log.Emit(string(deadline.PhaseHarden), "phase.start", fmt.Sprintf("running %d acceptance checks", len(checks)), nil, nil)

	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		if !check.IsCmd {
			continue
		}
		if toolCtx.Deadline.IsExpired() {
			results = append(results, CheckResult{Check: check, Passed: false, Output: "timebox exhausted before this check could run"})
			continue
		}

		result := dispatcher.Dispatch(ctx, "exec_command", map[string]any{"command": check.Command, "timeout": 120}, toolCtx)
		passed := result.Status == tool.StatusOK
		results = append(results, CheckResult{Check: check, Passed: passed, Output: result.Display})

		log.Emit(string(deadline.PhaseHarden), "harden.check",
			fmt.Sprintf("%s -> %v", check.Command, passed),
			map[string]any{"cmd": check.Command, "passed": passed}, nil)
	}

	passCount := 0
	for _, r := range results {
		if r.Passed {
			passCount++
		}
	}
	log.Emit(string(deadline.PhaseHarden), "phase.complete",
		fmt.Sprintf("%d/%d acceptance commands passed", passCount, len(results)), nil, nil)

	return results
}
