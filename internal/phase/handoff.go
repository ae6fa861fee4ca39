package phase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/noscope-dev/noscope/internal/agent"
	"github.com/noscope-dev/noscope/internal/contract"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/tokens"
)

const handoffSystemPrompt = `Write a concise handoff report in markdown for a human taking over a timeboxed autonomous build. Cover: what was built, what's working, what's missing or broken, and exactly how to run it. Be honest about failures. No more than 400 words.`

// RunHandoff always produces handoff.md, regardless of how the earlier
// phases went: it is invoked from a deferred recovery point so a panic or
// deadline expiry earlier in the run still leaves the operator a report.
func RunHandoff(
	ctx context.Context,
	doc contract.Document,
	build BuildResult,
	hardenResults []CheckResult,
	verifyResults []JudgedCheck,
	provider llm.Provider,
	runDir *eventlog.RunDir,
	log *eventlog.Log,
	tracker *tokens.Tracker,
) string {
	log.Emit(string(deadline.PhaseHandoff), "phase.start", "writing handoff report", nil, nil)

	report := generateReport(ctx, doc, build, hardenResults, verifyResults, provider, tracker, log)

	if err := os.WriteFile(runDir.HandoffPath(), []byte(report), 0o644); err != nil {
		log.Emit(string(deadline.PhaseHandoff), "phase.error", err.Error(), nil, nil)
	}
	log.Emit(string(deadline.PhaseHandoff), "phase.complete", "handoff report written", nil, nil)
	return report
}

func generateReport(
	ctx context.Context,
	doc contract.Document,
	build BuildResult,
	hardenResults []CheckResult,
	verifyResults []JudgedCheck,
	provider llm.Provider,
	tracker *tokens.Tracker,
	log *eventlog.Log,
) string {
	if provider == nil {
		return fallbackReport(doc, build, hardenResults, verifyResults)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: handoffSystemPrompt},
		{Role: llm.RoleUser, Content: summarizeForHandoff(doc, build, hardenResults, verifyResults)},
	}

	response, err := provider.Complete(ctx, messages, nil, "")
	if err != nil {
		log.Emit(string(deadline.PhaseHandoff), "handoff.llm_error", err.Error(), nil, nil)
		return fallbackReport(doc, build, hardenResults, verifyResults)
	}
	if tracker != nil {
		tracker.Add(response.Usage)
	}
	if strings.TrimSpace(response.Content) == "" {
		return fallbackReport(doc, build, hardenResults, verifyResults)
	}
	return response.Content
}

func summarizeForHandoff(doc contract.Document, build BuildResult, hardenResults []CheckResult, verifyResults []JudgedCheck) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nTimebox: %s\n\n", doc.Name, doc.Timebox)
	b.WriteString("Tasks:\n")
	for _, t := range build.Tasks {
		status := "incomplete"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", status, t.ID, t.Title)
	}
	if len(build.Findings) > 0 {
		b.WriteString("\nAudit findings:\n")
		for _, f := range build.Findings {
			fmt.Fprintf(&b, "- %s: %s\n", f.Check, f.Message)
		}
	}
	if len(hardenResults) > 0 {
		b.WriteString("\nAcceptance commands:\n")
		for _, r := range hardenResults {
			fmt.Fprintf(&b, "- %s -> %v\n", r.Check.Command, r.Passed)
		}
	}
	if len(verifyResults) > 0 {
		b.WriteString("\nJudged criteria:\n")
		for _, r := range verifyResults {
			fmt.Fprintf(&b, "- %s -> %v (%s)\n", r.Criterion, r.Passed, r.Reasoning)
		}
	}
	return b.String()
}

// fallbackReport is used when no provider is available or the handoff
// completion itself fails, so a run never ends without a report on disk.
func fallbackReport(doc contract.Document, build BuildResult, hardenResults []CheckResult, verifyResults []JudgedCheck) string {
	completed, total := 0, len(build.Tasks)
	for _, t := range build.Tasks {
		if t.Completed {
			completed++
		}
	}
	passedCmd, totalCmd := 0, len(hardenResults)
	for _, r := range hardenResults {
		if r.Passed {
			passedCmd++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Handoff: %s\n\n", doc.Name)
	fmt.Fprintf(&b, "Timebox: %s\n\n", doc.Timebox)
	fmt.Fprintf(&b, "## Tasks\n\n%d/%d tasks completed.\n\n", completed, total)
	for _, t := range build.Tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, t.Title)
	}
	fmt.Fprintf(&b, "\n## Acceptance\n\n%d/%d acceptance commands passed.\n\n", passedCmd, totalCmd)
	for _, r := range hardenResults {
		fmt.Fprintf(&b, "- `%s`: %v\n", r.Check.Command, r.Passed)
	}
	for _, r := range verifyResults {
		fmt.Fprintf(&b, "- %s: %v (%s)\n", r.Criterion, r.Passed, r.Reasoning)
	}
	if len(build.Findings) > 0 {
		b.WriteString("\n## Audit findings\n\n")
		for _, f := range build.Findings {
			fmt.Fprintf(&b, "- %s: %s\n", f.Check, f.Message)
		}
	}
	b.WriteString("\n_This report was generated without LLM assistance because the handoff completion failed or no provider was configured._\n")
	return b.String()
}
