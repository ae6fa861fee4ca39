package agent

import (
	"context"
	"strings"
	"time"

	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/tool"
)

// AuditInterval is how often the AuditAgent re-runs its checks while the
// BUILD phase is in progress.
const AuditInterval = 20 * time.Second

// Finding is a single issue surfaced by an audit pass.
type Finding struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// AuditAgent periodically inspects the workspace for obviously broken
// state — missing entrypoints, unparsable manifests — while BuildAgents
// are still working, so problems surface long before VERIFY.
type AuditAgent struct {
	Dispatcher *tool.Dispatcher
	Context    *tool.Context
	EventLog   *eventlog.Log
	Deadline   *deadline.Deadline

	Findings []Finding
}

// RunContinuous loops checks at AuditInterval until ctx is cancelled or the
// global deadline expires.
func (a *AuditAgent) RunContinuous(ctx context.Context) {
	ticker := time.NewTicker(AuditInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.Deadline.IsExpired() {
				return
			}
			a.runChecks(ctx)
		}
	}
}

// runChecks inspects package.json and requirements.txt (when present) for
// gross structural problems and records a Finding for each.
func (a *AuditAgent) runChecks(ctx context.Context) {
	findings := a.checkManifest(ctx, "package.json", "{")
	findings = append(findings, a.checkManifest(ctx, "requirements.txt", "")...)
	findings = append(findings, a.checkEntrypoint(ctx)...)

	for _, f := range findings {
		a.EventLog.Emit(string(deadline.PhaseBuild), "audit.finding", f.Check+": "+f.Message, map[string]any{"check": f.Check}, nil)
	}
	a.Findings = append(a.Findings, findings...)
}

func (a *AuditAgent) checkManifest(ctx context.Context, name, mustStartWith string) []Finding {
	result := a.Dispatcher.Dispatch(ctx, "read_file", map[string]any{"path": name}, a.Context)
	if result.Status == tool.StatusError {
		return nil
	}
	content, _ := result.Data["content"].(string)
	if mustStartWith != "" && !strings.HasPrefix(strings.TrimSpace(content), mustStartWith) {
		return []Finding{{Check: "manifest:" + name, Message: name + " does not look like valid JSON"}}
	}
	return nil
}

func (a *AuditAgent) checkEntrypoint(ctx context.Context) []Finding {
	result := a.Dispatcher.Dispatch(ctx, "list_directory", map[string]any{"path": "."}, a.Context)
	if result.Status == tool.StatusError {
		return []Finding{{Check: "entrypoint", Message: "workspace root is unreadable"}}
	}
	entries, _ := result.Data["entries"].([]any)
	if len(entries) == 0 {
		return []Finding{{Check: "entrypoint", Message: "workspace is empty"}}
	}
	return nil
}
