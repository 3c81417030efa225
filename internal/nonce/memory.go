package nonce

import (
	"context"
	"math/big"
	"sync"
)

type makerKey struct {
	chainID int64
	maker   string
}

// MemoryAllocator serializes allocation with a single mutex, modeling
// the row-level exclusive lock the Postgres allocator takes per key —
// here the whole map is the lock, since there's no real concurrent I/O
// to overlap across distinct keys in tests.
type MemoryAllocator struct {
	mu     sync.Mutex
	nonces map[makerKey]*big.Int
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{nonces: make(map[makerKey]*big.Int)}
}

func (a *MemoryAllocator) Allocate(_ context.Context, chainID int64, maker string) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := makerKey{chainID, maker}
	current, ok := a.nonces[k]
	if !ok {
		current = big.NewInt(0)
	}
	next := new(big.Int).Add(current, big.NewInt(1))
	a.nonces[k] = next
	return new(big.Int).Set(current), nil
}
