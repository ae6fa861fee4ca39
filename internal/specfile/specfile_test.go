package specfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.md")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseValidSpec(t *testing.T) {
	path := writeSpec(t, `---
name: Todo App
timebox: 30m
constraints:
  - no external database
acceptance:
  - "cmd: curl -sf http://localhost:5000"
  - app loads without errors
---

Build a todo list app.
`)

	spec, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Todo App", spec.Name)
	assert.Equal(t, 1800, spec.TimeboxSeconds)
	assert.Len(t, spec.Acceptance, 2)
	assert.True(t, spec.Acceptance[0].IsCmd)
	assert.Equal(t, "curl -sf http://localhost:5000", spec.Acceptance[0].Command)
	assert.False(t, spec.Acceptance[1].IsCmd)
	assert.Contains(t, spec.Body, "Build a todo list app.")
}

func TestParseMissingName(t *testing.T) {
	path := writeSpec(t, "---\ntimebox: 30m\n---\nbody\n")
	_, err := Parse(path)
	assert.Error(t, err)
}

func TestParseDurationVariants(t *testing.T) {
	cases := map[string]int{
		"30m":    1800,
		"1h":     3600,
		"1h30m":  5400,
		"90s":    90,
		"15":     900,
		"2h5m10s": 7510,
	}
	for input, want := range cases {
		got, err := ParseDuration(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseDurationRejectsInvalid(t *testing.T) {
	_, err := ParseDuration("abc")
	assert.Error(t, err)

	_, err = ParseDuration("-5m")
	assert.Error(t, err)
}
