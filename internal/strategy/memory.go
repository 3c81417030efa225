package strategy

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// MemoryStore is an in-process Store used in unit tests.
type MemoryStore struct {
	mu          sync.RWMutex
	strategies  map[string]Record
	chainStates map[int64]ChainState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strategies:  make(map[string]Record),
		chainStates: make(map[int64]ChainState),
	}
}

func (m *MemoryStore) List(_ context.Context, chainID int64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range m.strategies {
		if rec.ChainID == chainID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryStore) Create(_ context.Context, in CreateInput) (Record, error) {
	rec := Record{
		ID:      uuid.NewString(),
		ChainID: in.ChainID,
		Name:    in.Name,
		Version: in.Version,
		Params:  in.Params,
		Hash:    in.Hash,
		Enabled: true,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.strategies[id]
	if !ok {
		return Record{}, rfqerr.StrategyNotFound(id)
	}
	return rec, nil
}

func (m *MemoryStore) SetActive(_ context.Context, chainID int64, strategyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.strategies[strategyID]
	if !ok || rec.ChainID != chainID {
		return rfqerr.StrategyNotFound(strategyID)
	}
	cs := m.chainStates[chainID]
	cs.ChainID = chainID
	id := strategyID
	cs.ActiveStrategyID = &id
	m.chainStates[chainID] = cs
	return nil
}

func (m *MemoryStore) SetPaused(_ context.Context, chainID int64, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs := m.chainStates[chainID]
	cs.ChainID = chainID
	cs.Paused = paused
	m.chainStates[chainID] = cs
	return nil
}

func (m *MemoryStore) GetChainState(_ context.Context, chainID int64) (ChainState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.chainStates[chainID]
	if !ok {
		cs = ChainState{ChainID: chainID, Paused: false}
		m.chainStates[chainID] = cs
	}
	return cs, nil
}

func (m *MemoryStore) GetActiveStrategy(_ context.Context, chainID int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cs, ok := m.chainStates[chainID]
	if !ok || cs.ActiveStrategyID == nil {
		return Record{}, rfqerr.StrategyNotConfigured(chainID)
	}
	rec, ok := m.strategies[*cs.ActiveStrategyID]
	if !ok {
		return Record{}, rfqerr.StrategyNotConfigured(chainID)
	}
	if !rec.Enabled {
		return Record{}, rfqerr.StrategyNotEnabled(rec.ID)
	}
	return rec, nil
}

func (m *MemoryStore) SetAdvisoryLimits(_ context.Context, chainID int64, dailyCapUsd float64, maxTradeSizeRaw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs := m.chainStates[chainID]
	cs.ChainID = chainID
	cs.DailyCapUsd = dailyCapUsd
	cs.MaxTradeSizeRaw = maxTradeSizeRaw
	m.chainStates[chainID] = cs
	return nil
}
