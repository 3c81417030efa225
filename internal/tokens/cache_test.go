package tokens

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller answers CallContract by selector, mimicking an ERC-20's
// decimals()/symbol() without a live RPC endpoint.
type fakeCaller struct {
	decimals    uint8
	symbol      string
	symbolErr   error
	decimalsErr error
	calls       int
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	switch {
	case len(msg.Data) >= 4 && string(msg.Data[:4]) == string(decimalsSelector):
		if f.decimalsErr != nil {
			return nil, f.decimalsErr
		}
		packed, err := abi.Arguments{{Type: uint8Type}}.Pack(f.decimals)
		return packed, err
	case len(msg.Data) >= 4 && string(msg.Data[:4]) == string(symbolSelector):
		if f.symbolErr != nil {
			return nil, f.symbolErr
		}
		packed, err := abi.Arguments{{Type: stringType}}.Pack(f.symbol)
		return packed, err
	default:
		return nil, errors.New("unknown selector")
	}
}

func TestCacheEnsure_MissThenHit(t *testing.T) {
	store := NewMemoryStore()
	caller := &fakeCaller{decimals: 6, symbol: "USDC"}
	c := NewCacheWithDialer(store, func(int64, string) (CallContracter, error) {
		return caller, nil
	})

	addr := "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	rec, err := c.Ensure(context.Background(), 8453, "https://rpc.example", addr)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), rec.Decimals)
	require.NotNil(t, rec.Symbol)
	assert.Equal(t, "USDC", *rec.Symbol)

	// second call must be served from the store, not the RPC backend.
	callsBefore := caller.calls
	rec2, err := c.Ensure(context.Background(), 8453, "https://rpc.example", addr)
	require.NoError(t, err)
	assert.Equal(t, rec.Decimals, rec2.Decimals)
	assert.Equal(t, callsBefore, caller.calls)
}

func TestCacheEnsure_DecimalsFatalSymbolTolerated(t *testing.T) {
	store := NewMemoryStore()
	caller := &fakeCaller{decimals: 18, symbolErr: errors.New("symbol not implemented")}
	c := NewCacheWithDialer(store, func(int64, string) (CallContracter, error) {
		return caller, nil
	})

	addr := "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	rec, err := c.Ensure(context.Background(), 1, "https://rpc.example", addr)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), rec.Decimals)
	assert.Nil(t, rec.Symbol)
}

func TestCacheEnsure_DecimalsErrorIsFatal(t *testing.T) {
	store := NewMemoryStore()
	caller := &fakeCaller{decimalsErr: errors.New("call reverted")}
	c := NewCacheWithDialer(store, func(int64, string) (CallContracter, error) {
		return caller, nil
	})

	addr := "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	_, err := c.Ensure(context.Background(), 1, "https://rpc.example", addr)
	require.Error(t, err)

	got, gerr := store.Get(context.Background(), 1, addr)
	require.NoError(t, gerr)
	assert.Nil(t, got)
}

func TestCacheEnsure_InvalidAddress(t *testing.T) {
	store := NewMemoryStore()
	c := NewCacheWithDialer(store, func(int64, string) (CallContracter, error) {
		return nil, errors.New("should not dial")
	})
	_, err := c.Ensure(context.Background(), 1, "https://rpc.example", "not-an-address")
	require.Error(t, err)
}
