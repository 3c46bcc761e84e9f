package commitstate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(7)

	seq, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)

	next, err := m.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), next)

	seq, _ = m.Current(ctx)
	assert.Equal(t, uint64(8), seq)
}

func TestMemory_ConcurrentAdvance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = m.Advance(ctx)
			}
		}()
	}
	wg.Wait()

	seq, _ := m.Current(ctx)
	assert.Equal(t, uint64(800), seq)
}

func TestStatic(t *testing.T) {
	seq, err := Static(3).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
}
