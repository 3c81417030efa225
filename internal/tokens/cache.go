package tokens

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/aquaprotocol/rfq-issuer/internal/ethaddr"
)

var (
	uint8Type, _  = abi.NewType("uint8", "", nil)
	stringType, _ = abi.NewType("string", "", nil)

	decimalsSelector = selectorOf("decimals()")
	symbolSelector   = selectorOf("symbol()")
)

func selectorOf(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// dialFunc resolves a (chainId, rpcURL) pair to a contract caller. In
// production it is backed by ProviderCache.Get; tests inject a fake RPC
// backend without dialing anything.
type dialFunc func(chainID int64, rpcURL string) (CallContracter, error)

// Cache implements the Token Metadata Cache's Ensure operation
// (spec.md §4.B): check the store, otherwise read decimals/symbol over
// JSON-RPC concurrently, persist, and return.
type Cache struct {
	store Store
	dial  dialFunc
}

func NewCache(store Store, providers *ProviderCache) *Cache {
	return &Cache{store: store, dial: func(chainID int64, rpcURL string) (CallContracter, error) {
		return providers.Get(chainID, rpcURL)
	}}
}

// NewCacheWithDialer builds a Cache around a custom dialer, for tests.
func NewCacheWithDialer(store Store, dial dialFunc) *Cache {
	return &Cache{store: store, dial: dial}
}

// Ensure resolves (chainId, address) to a Record, reading from the chain
// only on a cache miss. decimals() failure is fatal; symbol() failure is
// tolerated and stored as nil.
func (c *Cache) Ensure(ctx context.Context, chainID int64, rpcURL string, address string) (*Record, error) {
	checksummed, err := ethaddr.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid token address %q: %w", address, err)
	}

	if rec, err := c.store.Get(ctx, chainID, checksummed); err != nil {
		return nil, err
	} else if rec != nil {
		return rec, nil
	}

	client, err := c.dial(chainID, rpcURL)
	if err != nil {
		return nil, err
	}

	addr := common.HexToAddress(checksummed)

	var (
		wg         sync.WaitGroup
		decimals   uint8
		decimalErr error
		symbol     *string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		decimals, decimalErr = readDecimals(ctx, client, addr)
	}()
	go func() {
		defer wg.Done()
		if s, err := readSymbol(ctx, client, addr); err == nil {
			symbol = &s
		}
	}()
	wg.Wait()

	if decimalErr != nil {
		return nil, fmt.Errorf("reading decimals() for %s on chain %d: %w", checksummed, chainID, decimalErr)
	}

	rec := Record{ChainID: chainID, Address: checksummed, Decimals: decimals, Symbol: symbol}
	if err := c.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func readDecimals(ctx context.Context, client CallContracter, addr common.Address) (uint8, error) {
	out, err := callContract(ctx, client, addr, decimalsSelector)
	if err != nil {
		return 0, err
	}
	vals, err := abi.Arguments{{Type: uint8Type}}.Unpack(out)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("unpacking decimals() result: %w", err)
	}
	return vals[0].(uint8), nil
}

func readSymbol(ctx context.Context, client CallContracter, addr common.Address) (string, error) {
	out, err := callContract(ctx, client, addr, symbolSelector)
	if err != nil {
		return "", err
	}
	vals, err := abi.Arguments{{Type: stringType}}.Unpack(out)
	if err != nil || len(vals) == 0 {
		return "", fmt.Errorf("unpacking symbol() result: %w", err)
	}
	return vals[0].(string), nil
}

// CallContracter abstracts ethclient.Client down to the one method the
// token metadata reads need, so tests can substitute a fake RPC backend.
type CallContracter interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

func callContract(ctx context.Context, client CallContracter, addr common.Address, selector []byte) ([]byte, error) {
	return client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: selector}, nil)
}
