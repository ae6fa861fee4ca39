// Package eventlog manages the per-run directory structure and the
// append-only JSONL event stream every phase writes to.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noscope-dev/noscope/internal/redact"
)

// RunDir manages the .noscope/runs/<run_id>/ directory structure and the
// well-known file paths within it.
type RunDir struct {
	RunID string
	Path  string
}

// NewRunDir creates (or reuses, for replay) a run directory under base. A
// run ID is generated in the form YYYYMMDDTHHMMZ_<8hex> when runID is empty.
func NewRunDir(base, runID string) (*RunDir, error) {
	if base == "" {
		base = filepath.Join(".noscope", "runs")
	}
	if runID == "" {
		runID = generateRunID()
	}
	path := filepath.Join(base, runID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return &RunDir{RunID: runID, Path: path}, nil
}

func generateRunID() string {
	ts := time.Now().UTC().Format("20060102T1504Z")
	return fmt.Sprintf("%s_%s", ts, uuid.New().String()[:8])
}

// EventsPath is the path to the JSONL event log.
func (r *RunDir) EventsPath() string { return filepath.Join(r.Path, "events.jsonl") }

// PlanPath is the path the generated plan is persisted to.
func (r *RunDir) PlanPath() string { return filepath.Join(r.Path, "plan.json") }

// ContractPath is the path the frozen run contract is persisted to.
func (r *RunDir) ContractPath() string { return filepath.Join(r.Path, "contract.json") }

// CapabilitiesRequestPath is the path requested capabilities are persisted to.
func (r *RunDir) CapabilitiesRequestPath() string {
	return filepath.Join(r.Path, "capabilities_request.json")
}

// CapabilitiesGrantPath is the path capability grant decisions are persisted to.
func (r *RunDir) CapabilitiesGrantPath() string {
	return filepath.Join(r.Path, "capabilities_grant.json")
}

// HandoffPath is the path the handoff markdown report is written to.
func (r *RunDir) HandoffPath() string { return filepath.Join(r.Path, "handoff.md") }

// Event is a single append-only log entry.
type Event struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"run_id"`
	Phase     string         `json:"phase"`
	Seq       int            `json:"seq"`
	Type      string         `json:"type"`
	Summary   string         `json:"summary"`
	Data      map[string]any `json:"data,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
}

// Log is an append-only JSONL event log guarded by a mutex so concurrent
// build/audit agents can emit events safely.
type Log struct {
	mu     sync.Mutex
	runDir *RunDir
	file   *os.File
	seq    int
}

// NewLog opens (creating if necessary) the events.jsonl file for runDir.
func NewLog(runDir *RunDir) (*Log, error) {
	f, err := os.OpenFile(runDir.EventsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Log{runDir: runDir, file: f}, nil
}

// Emit appends an event to the log, applying automatic secret redaction to
// every field, and returns the recorded event.
func (l *Log) Emit(phase, eventType, summary string, data, result map[string]any) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     l.runDir.RunID,
		Phase:     phase,
		Seq:       l.seq,
		Type:      eventType,
		Summary:   redact.AutoRedact(summary),
		Data:      sanitize(data),
	}
	if result != nil {
		event.Result = sanitize(result)
	}

	line, err := json.Marshal(event)
	if err == nil {
		l.file.Write(append(line, '\n'))
		l.file.Sync()
	}
	return event
}

func sanitize(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	redacted := redact.Structured(data, nil)
	if m, ok := redacted.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
