// Package tokens implements the Token Metadata Cache (spec.md §4.B): it
// resolves and memoizes (chainId, token) -> {decimals, symbol} via
// JSON-RPC, persisting the result so it is read only once per token per
// process lifetime (per run; see spec.md §3 Token Record lifecycle).
package tokens

import "context"

// Record is the persisted Token Record (spec.md §3).
type Record struct {
	ChainID  int64
	Address  string // checksummed
	Decimals uint8
	Symbol   *string
}

// Store persists Token Records, keyed by (chainId, address).
type Store interface {
	Get(ctx context.Context, chainID int64, address string) (*Record, error)
	Put(ctx context.Context, rec Record) error
	List(ctx context.Context, chainID int64) ([]Record, error)
}
