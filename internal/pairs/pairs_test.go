package pairs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

const (
	usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	weth = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

func TestEnsureEnabled_NotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.EnsureEnabled(context.Background(), 1, usdc, weth)
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodePairNotEnabled, rfqerr.FromError(err).Code())
}

func TestUpsertThenEnsureEnabled(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, 1, usdc, weth, true, "")
	require.NoError(t, err)

	rec, err := store.EnsureEnabled(ctx, 1, weth, usdc)
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, rec.Token0, rec.Token0)

	// disabling must be picked up regardless of argument order.
	_, err = store.Upsert(ctx, 1, usdc, weth, false, "paused for maintenance")
	require.NoError(t, err)
	_, err = store.EnsureEnabled(ctx, 1, weth, usdc)
	require.Error(t, err)
}

func TestList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Upsert(ctx, 1, usdc, weth, true, "")
	_, _ = store.Upsert(ctx, 2, usdc, weth, true, "")

	recs, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
