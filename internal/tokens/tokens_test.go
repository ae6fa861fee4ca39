package tokens

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noscope-dev/noscope/internal/llm"
)

func TestAddAccumulates(t *testing.T) {
	t.Parallel()
	tr := New()
	tr.Add(llm.Usage{InputTokens: 10, OutputTokens: 5})
	tr.Add(llm.Usage{InputTokens: 3, OutputTokens: 2})
	in, out := tr.Totals()
	require.Equal(t, 13, in)
	require.Equal(t, 7, out)
}

func TestAddIsMonotonicUnderConcurrency(t *testing.T) {
	t.Parallel()
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add(llm.Usage{InputTokens: 1, OutputTokens: 1})
		}()
	}
	wg.Wait()
	in, out := tr.Totals()
	require.Equal(t, 100, in)
	require.Equal(t, 100, out)
}
