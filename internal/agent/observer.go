// Package agent implements the autonomous build agents and continuous
// audit agent that carry out the BUILD phase.
package agent

import "github.com/noscope-dev/noscope/internal/deadline"

// Observer receives UI-facing progress hooks during a build. A nil
// Observer is valid; every call site guards against it so headless runs
// (CI, `noscope run` without --tui) incur no overhead.
type Observer interface {
	PhaseBanner(phase deadline.Phase, message, remaining string)
	LLMThinking(text string, d *deadline.Deadline)
	ToolActivity(name, summary string, d *deadline.Deadline)
	TaskComplete(taskID, title string, d *deadline.Deadline)
}
