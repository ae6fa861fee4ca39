// Package tokens tracks cumulative LLM token usage across a run; the totals
// are printed when the run finishes.
package tokens

import (
	"sync"

	"github.com/noscope-dev/noscope/internal/llm"
)

// Tracker accumulates input/output token counts across every completion
// issued during a run. Safe for concurrent use by multiple build agents.
type Tracker struct {
	mu           sync.Mutex
	InputTokens  int
	OutputTokens int
}

// New constructs an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Add folds usage into the running totals.
func (t *Tracker) Add(usage llm.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.InputTokens += usage.InputTokens
	t.OutputTokens += usage.OutputTokens
}

// Totals returns a consistent snapshot of the accumulated counts.
func (t *Tracker) Totals() (input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.InputTokens, t.OutputTokens
}
