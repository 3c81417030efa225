package quotestore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// PgStore persists Quote Records in the `quotes` table. Inserts only —
// the orchestrator never updates a Quote Record once issued.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Insert(ctx context.Context, q Quote) error {
	sources, err := json.Marshal(q.PricingSources)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quotes (
			quote_id, chain_id, maker, taker, recipient, executor,
			strategy_id, strategy_version, strategy_hash,
			sell_token, buy_token, sell_amount, buy_amount,
			fee_bps, fee_amount, nonce, expiry,
			typed_data, signature, tx_to, tx_data, tx_value,
			status, reject_code,
			pricing_as_of_ms, pricing_confidence, pricing_stale, pricing_sources,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21, $22,
			$23, $24,
			$25, $26, $27, $28,
			$29
		)
	`,
		q.QuoteID, q.ChainID, q.Maker, q.Taker, q.Recipient, q.Executor,
		q.StrategyID, q.StrategyVersion, q.StrategyHash,
		q.SellToken, q.BuyToken, q.SellAmount, q.BuyAmount,
		q.FeeBps, q.FeeAmount, q.Nonce, q.Expiry,
		q.TypedData, q.Signature, q.TxTo, q.TxData, q.TxValue,
		q.Status, q.RejectCode,
		q.PricingAsOfMs, q.PricingConfidence, q.PricingStale, sources,
		q.CreatedAt,
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, quoteID string) (*Quote, error) {
	var q Quote
	var sources []byte
	err := s.pool.QueryRow(ctx, `
		SELECT
			quote_id, chain_id, maker, taker, recipient, executor,
			strategy_id, strategy_version, strategy_hash,
			sell_token, buy_token, sell_amount, buy_amount,
			fee_bps, fee_amount, nonce, expiry,
			typed_data, signature, tx_to, tx_data, tx_value,
			status, COALESCE(reject_code, ''),
			pricing_as_of_ms, pricing_confidence, pricing_stale, pricing_sources,
			created_at
		FROM quotes WHERE quote_id = $1
	`, quoteID).Scan(
		&q.QuoteID, &q.ChainID, &q.Maker, &q.Taker, &q.Recipient, &q.Executor,
		&q.StrategyID, &q.StrategyVersion, &q.StrategyHash,
		&q.SellToken, &q.BuyToken, &q.SellAmount, &q.BuyAmount,
		&q.FeeBps, &q.FeeAmount, &q.Nonce, &q.Expiry,
		&q.TypedData, &q.Signature, &q.TxTo, &q.TxData, &q.TxValue,
		&q.Status, &q.RejectCode,
		&q.PricingAsOfMs, &q.PricingConfidence, &q.PricingStale, &sources,
		&q.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, rfqerr.QuoteNotFound(quoteID)
	}
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		if jerr := json.Unmarshal(sources, &q.PricingSources); jerr != nil {
			return nil, jerr
		}
	}
	return &q, nil
}
