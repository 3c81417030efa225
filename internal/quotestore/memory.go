package quotestore

import (
	"context"
	"sync"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// MemoryStore is an in-process Store used in unit tests.
type MemoryStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[string]Quote)}
}

func (m *MemoryStore) Insert(_ context.Context, q Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.quotes[q.QuoteID]; exists {
		return rfqerr.Internal("quote " + q.QuoteID + " already exists")
	}
	m.quotes[q.QuoteID] = q
	return nil
}

func (m *MemoryStore) Get(_ context.Context, quoteID string) (*Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[quoteID]
	if !ok {
		return nil, rfqerr.QuoteNotFound(quoteID)
	}
	cp := q
	return &cp, nil
}
