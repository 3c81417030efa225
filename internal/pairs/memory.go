package pairs

import (
	"context"
	"sync"

	"github.com/aquaprotocol/rfq-issuer/internal/pairutil"
	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

type pairKey struct {
	chainID int64
	token0  string
	token1  string
}

// MemoryStore is an in-process Store, used in unit tests.
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[pairKey]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[pairKey]Record)}
}

func (m *MemoryStore) EnsureEnabled(_ context.Context, chainID int64, a, b string) (Record, error) {
	token0, token1, _ := pairutil.Canonical(a, b)
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.pairs[pairKey{chainID, token0, token1}]
	if !ok || !rec.Enabled {
		return Record{}, rfqerr.PairNotEnabled(token0, token1)
	}
	return rec, nil
}

func (m *MemoryStore) Upsert(_ context.Context, chainID int64, a, b string, enabled bool, metadata string) (Record, error) {
	token0, token1, _ := pairutil.Canonical(a, b)
	rec := Record{ChainID: chainID, Token0: token0, Token1: token1, Enabled: enabled, Metadata: metadata}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[pairKey{chainID, token0, token1}] = rec
	return rec, nil
}

func (m *MemoryStore) List(_ context.Context, chainID int64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0)
	for k, rec := range m.pairs {
		if k.chainID == chainID {
			out = append(out, rec)
		}
	}
	return out, nil
}
