package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocatesPhaseDeadlines(t *testing.T) {
	d := New(100, nil)
	require.Equal(t, PhasePlan, d.CurrentPhase())
	assert.InDelta(t, 100, d.Remaining().Seconds(), 1)
	assert.InDelta(t, 10, d.PhaseRemaining(PhasePlan).Seconds(), 1)
	assert.InDelta(t, 10, d.PhaseRemaining(PhaseRequest).Seconds(), 1)
	assert.InDelta(t, 60, d.PhaseRemaining(PhaseBuild).Seconds(), 1)
}

func TestAdvancePhase(t *testing.T) {
	d := New(100, nil)
	d.AdvancePhase(PhaseBuild)
	assert.Equal(t, PhaseBuild, d.CurrentPhase())
}

func TestIsPanicMode(t *testing.T) {
	d := New(1, nil)
	time.Sleep(2 * time.Millisecond)
	assert.True(t, d.IsPanicMode(), "a 1s timebox has less than the 60s floor remaining")
}

func TestShouldTransitionAtBudgetExhaustion(t *testing.T) {
	allocation := map[Phase]float64{
		PhasePlan: 0, PhaseRequest: 0, PhaseBuild: 0, PhaseHarden: 0, PhaseVerify: 0, PhaseHandoff: 1,
	}
	d := New(1, allocation)
	next := d.ShouldTransition(PhasePlan)
	assert.Equal(t, PhaseRequest, next)
}

func TestFormatRemainingFloorsAtZero(t *testing.T) {
	d := New(0, nil)
	assert.Equal(t, "0:00", d.FormatRemaining())
}
