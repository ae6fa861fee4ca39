package capability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClosedWorldDeniesUngrantedCapability(t *testing.T) {
	t.Parallel()
	s := NewStore(nil)
	require.False(t, s.Check(ShellExec))
}

func TestGrantAndCheck(t *testing.T) {
	t.Parallel()
	s := NewStore([]Grant{{Cap: string(WorkspaceRW), Approved: true}})
	require.True(t, s.Check(WorkspaceRW))
	require.False(t, s.Check(ShellExec))
}

func TestDenyOverridesGrant(t *testing.T) {
	t.Parallel()
	s := NewStore([]Grant{{Cap: string(Git), Approved: true}})
	require.True(t, s.Check(Git))
	s.Deny(string(Git))
	require.False(t, s.Check(Git))
}

func TestSecretCapRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewStore(nil)
	s.Grant(SecretCap("ANTHROPIC_API_KEY"))
	require.True(t, s.HasSecret("ANTHROPIC_API_KEY"))
	require.False(t, s.HasSecret("OTHER_KEY"))
}

func TestGrantsRoundTripsThroughNewStore(t *testing.T) {
	t.Parallel()
	original := []Grant{
		{Cap: string(Docker), Approved: true},
		{Cap: string(NetHTTP), Approved: false},
	}
	s := NewStore(original)
	round := s.Grants()
	require.Len(t, round, len(original))

	s2 := NewStore(round)
	require.True(t, s2.Check(Docker))
	require.False(t, s2.Check(NetHTTP))
}
