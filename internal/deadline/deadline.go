// Package deadline manages the global timebox for a run and the fractional
// budgets allotted to each phase.
package deadline

import (
	"fmt"
	"sync"
	"time"
)

// Phase identifies one of the six sequential phases of a run.
type Phase string

// The fixed phase sequence. HANDOFF always runs, regardless of how much of
// the budget earlier phases consumed.
const (
	PhasePlan    Phase = "PLAN"
	PhaseRequest Phase = "REQUEST"
	PhaseBuild   Phase = "BUILD"
	PhaseHarden  Phase = "HARDEN"
	PhaseVerify  Phase = "VERIFY"
	PhaseHandoff Phase = "HANDOFF"
)

// Order lists phases in transition order.
var Order = []Phase{PhasePlan, PhaseRequest, PhaseBuild, PhaseHarden, PhaseVerify, PhaseHandoff}

// DefaultAllocation is the fraction of the total timebox allotted to each
// phase. REQUEST is interactive and carries no budget of its own; its
// wall-clock cost is absorbed by whichever phase follows.
var DefaultAllocation = map[Phase]float64{
	PhasePlan:    0.10,
	PhaseRequest: 0.00,
	PhaseBuild:   0.50,
	PhaseHarden:  0.25,
	PhaseVerify:  0.10,
	PhaseHandoff: 0.05,
}

// Deadline tracks the global timebox and per-phase budgets for a run. All
// methods are safe for concurrent use: the BUILD phase may be observed
// simultaneously by several worker agents and an audit agent.
type Deadline struct {
	mu sync.RWMutex

	totalSeconds   int
	allocation     map[Phase]float64
	start          time.Time
	end            time.Time
	currentPhase   Phase
	phaseStart     time.Time
	phaseDeadlines map[Phase]time.Time
}

// New creates a Deadline for a run with the given total budget in seconds.
// A nil allocation falls back to DefaultAllocation.
func New(totalSeconds int, allocation map[Phase]float64) *Deadline {
	if allocation == nil {
		allocation = DefaultAllocation
	}
	now := time.Now()
	d := &Deadline{
		totalSeconds:   totalSeconds,
		allocation:     allocation,
		start:          now,
		end:            now.Add(time.Duration(totalSeconds) * time.Second),
		currentPhase:   PhasePlan,
		phaseStart:     now,
		phaseDeadlines: make(map[Phase]time.Time, len(Order)),
	}
	cumulative := 0.0
	for _, phase := range Order {
		cumulative += allocation[phase]
		d.phaseDeadlines[phase] = now.Add(time.Duration(float64(totalSeconds)*cumulative) * time.Second)
	}
	return d
}

// CurrentPhase returns the phase most recently set via AdvancePhase.
func (d *Deadline) CurrentPhase() Phase {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currentPhase
}

// AdvancePhase manually transitions to the given phase and resets its
// wall-clock start time.
func (d *Deadline) AdvancePhase(phase Phase) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentPhase = phase
	d.phaseStart = time.Now()
}

// Elapsed returns the time elapsed since the run started.
func (d *Deadline) Elapsed() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return time.Since(d.start)
}

// Remaining returns the time left in the global timebox, floored at zero.
func (d *Deadline) Remaining() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return remaining(d.end)
}

// PhaseRemaining returns the time left in the given phase's budget. A zero
// Phase argument means the current phase.
func (d *Deadline) PhaseRemaining(phase Phase) time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if phase == "" {
		phase = d.currentPhase
	}
	dl, ok := d.phaseDeadlines[phase]
	if !ok {
		dl = d.end
	}
	return remaining(dl)
}

func remaining(dl time.Time) time.Duration {
	rem := time.Until(dl)
	if rem < 0 {
		return 0
	}
	return rem
}

// IsExpired reports whether the global deadline has passed.
func (d *Deadline) IsExpired() bool {
	return d.Remaining() <= 0
}

// IsPanicMode reports whether remaining time has dropped below
// max(60s, 10% of the total timebox).
func (d *Deadline) IsPanicMode() bool {
	d.mu.RLock()
	threshold := time.Duration(float64(d.totalSeconds)*0.10) * time.Second
	d.mu.RUnlock()
	if threshold < 60*time.Second {
		threshold = 60 * time.Second
	}
	return d.Remaining() < threshold
}

// ShouldTransition reports the next phase if the given phase's (or current
// phase's, if empty) time budget has run out. Returns "" when no transition
// is due.
func (d *Deadline) ShouldTransition(phase Phase) Phase {
	d.mu.RLock()
	current := phase
	if current == "" {
		current = d.currentPhase
	}
	d.mu.RUnlock()

	if d.PhaseRemaining(current) > 0 {
		return ""
	}
	for i, p := range Order {
		if p == current && i+1 < len(Order) {
			return Order[i+1]
		}
	}
	return ""
}

// FormatRemaining renders the remaining time as "M:SS".
func (d *Deadline) FormatRemaining() string {
	secs := d.Remaining().Seconds()
	if secs <= 0 {
		return "0:00"
	}
	minutes := int(secs) / 60
	seconds := int(secs) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
