// Package quotestore persists Quote Records, immutable once inserted.
package quotestore

import (
	"context"
	"time"
)

// Quote is a persisted Quote Record (spec §3).
type Quote struct {
	QuoteID           string
	ChainID           int64
	Maker             string
	Taker             string
	Recipient         string
	Executor          string
	StrategyID        string
	StrategyVersion   int
	StrategyHash      string
	SellToken         string
	BuyToken          string
	SellAmount        string
	BuyAmount         string // net, what the taker receives
	FeeBps            int
	FeeAmount         string // strategy fee, informational
	Nonce             string
	Expiry            int64
	TypedData         string // json
	Signature         string
	TxTo              string
	TxData            string
	TxValue           string
	Status            string
	RejectCode        string
	PricingAsOfMs     int64
	PricingConfidence float64
	PricingStale      bool
	PricingSources    []string
	CreatedAt         time.Time
}

const StatusIssued = "ISSUED"

// Store persists and retrieves Quote Records.
type Store interface {
	Insert(ctx context.Context, q Quote) error
	Get(ctx context.Context, quoteID string) (*Quote, error)
}
