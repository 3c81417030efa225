package tokens

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists Token Records in the `tokens` table, following the
// teacher's *pgxpool.Pool-holding repository idiom
// (internal/accounts/repository.go in the reference exchange backend).
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Get(ctx context.Context, chainID int64, address string) (*Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT chain_id, address, decimals, symbol
		FROM tokens
		WHERE chain_id = $1 AND address = $2
	`, chainID, address).Scan(&rec.ChainID, &rec.Address, &rec.Decimals, &rec.Symbol)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PgStore) Put(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (chain_id, address, decimals, symbol)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, address) DO NOTHING
	`, rec.ChainID, rec.Address, rec.Decimals, rec.Symbol)
	return err
}

func (s *PgStore) List(ctx context.Context, chainID int64) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, address, decimals, symbol
		FROM tokens
		WHERE chain_id = $1
		ORDER BY address
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ChainID, &rec.Address, &rec.Decimals, &rec.Symbol); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
