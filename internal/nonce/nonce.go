// Package nonce implements the Nonce Allocator: atomic, strictly
// monotonic per-(chain, maker) nonce allocation, the one globally
// serialized resource in the system.
package nonce

import (
	"context"
	"math/big"
)

// Allocator returns the current nextNonce and atomically increments it.
type Allocator interface {
	Allocate(ctx context.Context, chainID int64, maker string) (*big.Int, error)
}
