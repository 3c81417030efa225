package nonce

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgAllocator persists the nonce counter in the `nonce_state` table,
// using the teacher's SELECT ... FOR UPDATE-within-a-transaction idiom
// (internal/accounts/repository.go's updateBalanceInTx) to serialize
// concurrent allocators on the same (chain_id, maker) row.
type PgAllocator struct {
	pool *pgxpool.Pool
}

func NewPgAllocator(pool *pgxpool.Pool) *PgAllocator {
	return &PgAllocator{pool: pool}
}

func (a *PgAllocator) Allocate(ctx context.Context, chainID int64, maker string) (*big.Int, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning nonce allocation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ensure the row exists before locking it: SELECT ... FOR UPDATE
	// cannot lock a row that isn't there yet, so two first-time callers
	// for the same (chain, maker) would otherwise race past the SELECT
	// and both attempt the initial INSERT. ON CONFLICT DO NOTHING makes
	// this idempotent; whichever caller's INSERT commits first, every
	// other caller's FOR UPDATE below serializes behind it.
	if _, err := tx.Exec(ctx, `
		INSERT INTO nonce_state (chain_id, maker_address, next_nonce)
		VALUES ($1, $2, '0')
		ON CONFLICT (chain_id, maker_address) DO NOTHING
	`, chainID, maker); err != nil {
		return nil, fmt.Errorf("seeding nonce row: %w", err)
	}

	var current string
	err = tx.QueryRow(ctx, `
		SELECT next_nonce FROM nonce_state
		WHERE chain_id = $1 AND maker_address = $2
		FOR UPDATE
	`, chainID, maker).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("nonce row missing for chain %d maker %s after seeding", chainID, maker)
	} else if err != nil {
		return nil, fmt.Errorf("locking nonce row: %w", err)
	}

	next, ok := new(big.Int).SetString(current, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt next_nonce value %q for chain %d maker %s", current, chainID, maker)
	}
	incremented := new(big.Int).Add(next, big.NewInt(1))
	if _, err := tx.Exec(ctx, `
		UPDATE nonce_state SET next_nonce = $1
		WHERE chain_id = $2 AND maker_address = $3
	`, incremented.String(), chainID, maker); err != nil {
		return nil, fmt.Errorf("updating nonce row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing nonce allocation: %w", err)
	}
	return next, nil
}
