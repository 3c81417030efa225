package nonce

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_StrictlyIncreasing(t *testing.T) {
	a := NewMemoryAllocator()
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		n, err := a.Allocate(ctx, 8453, "0xMaker")
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(i), n)
	}
}

func TestAllocate_IndependentPerChainAndMaker(t *testing.T) {
	a := NewMemoryAllocator()
	ctx := context.Background()

	n1, err := a.Allocate(ctx, 8453, "0xA")
	require.NoError(t, err)
	n2, err := a.Allocate(ctx, 1, "0xA")
	require.NoError(t, err)
	n3, err := a.Allocate(ctx, 8453, "0xB")
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(0), n1)
	assert.Equal(t, big.NewInt(0), n2)
	assert.Equal(t, big.NewInt(0), n3)
}

// TestAllocate_ConcurrentNoGapsNoDuplicates exercises the scenario of
// 100 concurrent allocators against the same (chain, maker) key: every
// nonce from N..N+99 must be handed out exactly once.
func TestAllocate_ConcurrentNoGapsNoDuplicates(t *testing.T) {
	a := NewMemoryAllocator()
	ctx := context.Background()

	const n = 100
	results := make([]*big.Int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			got, err := a.Allocate(ctx, 8453, "0xMaker")
			require.NoError(t, err)
			results[i] = got
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	values := make([]int64, 0, n)
	for _, r := range results {
		require.False(t, seen[r.String()], "duplicate nonce %s", r.String())
		seen[r.String()] = true
		values = append(values, r.Int64())
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i), v)
	}
}
