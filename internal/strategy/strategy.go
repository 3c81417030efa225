// Package strategy implements the Strategy Catalog & Chain State
// component: immutable strategy definitions plus the one mutable row
// per chain (active strategy, paused flag, advisory trade-size limits).
package strategy

import "context"

// Record is an immutable Strategy Record once created. Create always
// sets Enabled to true; no Store method changes it afterwards.
type Record struct {
	ID       string
	ChainID  int64
	Name     string
	Version  int
	Params   string // opaque JSON blob
	Hash     string // bytes32 hex, the on-chain identity fingerprint
	Enabled  bool
}

// ChainState is the single mutable row per chain. DailyCapUsd and
// MaxTradeSizeRaw are advisory limits recovered from the original
// maker-agent's MakerConfig; MaxTradeSizeRaw is enforced by the
// orchestrator as a maker-side circuit breaker, DailyCapUsd is
// exposed on /admin/config and /metadata only.
type ChainState struct {
	ChainID          int64
	ActiveStrategyID *string
	Paused           bool
	DailyCapUsd      float64
	MaxTradeSizeRaw  string
}

// CreateInput is the payload for creating a new strategy definition.
type CreateInput struct {
	ChainID int64
	Name    string
	Version int
	Params  string
	Hash    string
}

// Store persists strategy definitions and chain state.
type Store interface {
	List(ctx context.Context, chainID int64) ([]Record, error)
	Create(ctx context.Context, in CreateInput) (Record, error)
	FindByID(ctx context.Context, id string) (Record, error)
	SetActive(ctx context.Context, chainID int64, strategyID string) error
	SetPaused(ctx context.Context, chainID int64, paused bool) error

	// GetChainState lazily creates a default {paused:false} row if missing.
	GetChainState(ctx context.Context, chainID int64) (ChainState, error)
	// GetActiveStrategy fails STRATEGY_NOT_CONFIGURED if no strategy is
	// active, STRATEGY_NOT_ENABLED if the active strategy is disabled.
	GetActiveStrategy(ctx context.Context, chainID int64) (Record, error)

	SetAdvisoryLimits(ctx context.Context, chainID int64, dailyCapUsd float64, maxTradeSizeRaw string) error
}
