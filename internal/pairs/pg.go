package pairs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquaprotocol/rfq-issuer/internal/pairutil"
	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// PgStore persists Pair Records in the `pairs` table, following the
// teacher's pgxpool-backed repository idiom.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) EnsureEnabled(ctx context.Context, chainID int64, a, b string) (Record, error) {
	token0, token1, _ := pairutil.Canonical(a, b)
	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT chain_id, token0, token1, enabled, COALESCE(metadata, '')
		FROM pairs
		WHERE chain_id = $1 AND token0 = $2 AND token1 = $3
	`, chainID, token0, token1).Scan(&rec.ChainID, &rec.Token0, &rec.Token1, &rec.Enabled, &rec.Metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, rfqerr.PairNotEnabled(token0, token1)
	}
	if err != nil {
		return Record{}, err
	}
	if !rec.Enabled {
		return Record{}, rfqerr.PairNotEnabled(token0, token1)
	}
	return rec, nil
}

func (s *PgStore) Upsert(ctx context.Context, chainID int64, a, b string, enabled bool, metadata string) (Record, error) {
	token0, token1, _ := pairutil.Canonical(a, b)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pairs (chain_id, token0, token1, enabled, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chain_id, token0, token1)
		DO UPDATE SET enabled = EXCLUDED.enabled, metadata = EXCLUDED.metadata
	`, chainID, token0, token1, enabled, metadata)
	if err != nil {
		return Record{}, err
	}
	return Record{ChainID: chainID, Token0: token0, Token1: token1, Enabled: enabled, Metadata: metadata}, nil
}

func (s *PgStore) List(ctx context.Context, chainID int64) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, token0, token1, enabled, COALESCE(metadata, '')
		FROM pairs
		WHERE chain_id = $1
		ORDER BY token0, token1
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ChainID, &rec.Token0, &rec.Token1, &rec.Enabled, &rec.Metadata); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
