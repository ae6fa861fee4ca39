package telemetry

import (
	"fmt"
	"io"
	"sync"

	"github.com/noscope-dev/noscope/internal/agent"
	"github.com/noscope-dev/noscope/internal/deadline"
)

// ConsoleObserver renders build progress as plain lines on an io.Writer. It
// is the observer `noscope run --tui` installs; a richer terminal UI can
// implement the same agent.Observer interface without touching phase or
// agent code.
type ConsoleObserver struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleObserver constructs a ConsoleObserver writing to out.
func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{out: out}
}

// PhaseBanner prints a phase transition line.
func (c *ConsoleObserver) PhaseBanner(phase deadline.Phase, message, remaining string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "== %s == %s (%s remaining)\n", phase, message, remaining)
}

// LLMThinking prints a truncated model response.
func (c *ConsoleObserver) LLMThinking(text string, d *deadline.Deadline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[%s] %s\n", d.FormatRemaining(), text)
}

// ToolActivity prints a one-line summary of a tool call.
func (c *ConsoleObserver) ToolActivity(name, summary string, d *deadline.Deadline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[%s] %s: %s\n", d.FormatRemaining(), name, summary)
}

// TaskComplete prints a completed-task line.
func (c *ConsoleObserver) TaskComplete(taskID, title string, d *deadline.Deadline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[%s] done: %s %s\n", d.FormatRemaining(), taskID, title)
}

var _ agent.Observer = (*ConsoleObserver)(nil)
