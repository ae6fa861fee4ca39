package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noscope-dev/noscope/internal/specfile"
)

func TestStrictBlocksExecCommand(t *testing.T) {
	t.Parallel()
	e := New(specfile.RiskStrict)
	decision := e.Evaluate("exec_command")
	require.False(t, decision.Allowed)
}

func TestDefaultAllowsExecCommandUnderCap(t *testing.T) {
	t.Parallel()
	e := New(specfile.RiskDefault)
	for i := 0; i < 50; i++ {
		require.True(t, e.Evaluate("exec_command").Allowed)
	}
	require.False(t, e.Evaluate("exec_command").Allowed)
}

func TestPermissiveIsUncapped(t *testing.T) {
	t.Parallel()
	e := New(specfile.RiskPermissive)
	for i := 0; i < 200; i++ {
		require.True(t, e.Evaluate("exec_command").Allowed)
	}
}

func TestFileToolsAlwaysAllowed(t *testing.T) {
	t.Parallel()
	e := New(specfile.RiskStrict)
	require.True(t, e.Evaluate("write_file").Allowed)
	require.True(t, e.Evaluate("read_file").Allowed)
}
