package tokens

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ProviderCache is the single-flight-per-chain JSON-RPC client cache
// spec.md §5 requires: "the JSON-RPC provider cache (B) is single-flight
// per chain." Once a client has been dialed, reads take only the read
// lock; the first caller for a chain pays the dial cost under the write
// lock.
type ProviderCache struct {
	mu      sync.RWMutex
	clients map[int64]*ethclient.Client
}

func NewProviderCache() *ProviderCache {
	return &ProviderCache{clients: make(map[int64]*ethclient.Client)}
}

func (p *ProviderCache) Get(chainID int64, rpcURL string) (*ethclient.Client, error) {
	p.mu.RLock()
	if c, ok := p.clients[chainID]; ok {
		p.mu.RUnlock()
		return c, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing chain %d rpc %s: %w", chainID, rpcURL, err)
	}
	p.clients[chainID] = client
	return client, nil
}
