package pairs

import "context"

// Record is a Pair Admission Store row, keyed by the canonical
// (chainId, token0, token1) triple.
type Record struct {
	ChainID  int64
	Token0   string
	Token1   string
	Enabled  bool
	Metadata string
}

// Store admits or rejects trading pairs and is the backing interface for
// both the Postgres and in-memory implementations.
type Store interface {
	// EnsureEnabled canonicalizes (a,b) and fails PAIR_NOT_ENABLED if the
	// pair is absent or disabled.
	EnsureEnabled(ctx context.Context, chainID int64, a, b string) (Record, error)
	// Upsert canonicalizes (a,b) and inserts or updates the pair's
	// enabled flag and metadata.
	Upsert(ctx context.Context, chainID int64, a, b string, enabled bool, metadata string) (Record, error)
	List(ctx context.Context, chainID int64) ([]Record, error)
}
