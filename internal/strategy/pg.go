package strategy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// PgStore persists strategies and chain state, following the teacher's
// pgxpool-backed repository idiom: every mutation runs in its own
// explicit transaction (internal/accounts/repository.go).
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) List(ctx context.Context, chainID int64) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chain_id, name, version, params, hash, enabled
		FROM strategies WHERE chain_id = $1 ORDER BY version, name
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ChainID, &rec.Name, &rec.Version, &rec.Params, &rec.Hash, &rec.Enabled); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PgStore) Create(ctx context.Context, in CreateInput) (Record, error) {
	rec := Record{ID: uuid.NewString(), ChainID: in.ChainID, Name: in.Name, Version: in.Version, Params: in.Params, Hash: in.Hash, Enabled: true}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO strategies (id, chain_id, name, version, params, hash, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, rec.ID, rec.ChainID, rec.Name, rec.Version, rec.Params, rec.Hash)
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PgStore) FindByID(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT id, chain_id, name, version, params, hash, enabled
		FROM strategies WHERE id = $1
	`, id).Scan(&rec.ID, &rec.ChainID, &rec.Name, &rec.Version, &rec.Params, &rec.Hash, &rec.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, rfqerr.StrategyNotFound(id)
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PgStore) SetActive(ctx context.Context, chainID int64, strategyID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var belongsToChain int64
	err = tx.QueryRow(ctx, `SELECT chain_id FROM strategies WHERE id = $1`, strategyID).Scan(&belongsToChain)
	if errors.Is(err, pgx.ErrNoRows) {
		return rfqerr.StrategyNotFound(strategyID)
	}
	if err != nil {
		return err
	}
	if belongsToChain != chainID {
		return rfqerr.StrategyNotFound(strategyID)
	}

	if _, err := s.ensureChainStateTx(ctx, tx, chainID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE chain_state SET active_strategy_id = $1 WHERE chain_id = $2`, strategyID, chainID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) SetPaused(ctx context.Context, chainID int64, paused bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := s.ensureChainStateTx(ctx, tx, chainID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE chain_state SET paused = $1 WHERE chain_id = $2`, paused, chainID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) GetChainState(ctx context.Context, chainID int64) (ChainState, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ChainState{}, err
	}
	defer tx.Rollback(ctx)

	cs, err := s.ensureChainStateTx(ctx, tx, chainID)
	if err != nil {
		return ChainState{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ChainState{}, err
	}
	return cs, nil
}

func (s *PgStore) GetActiveStrategy(ctx context.Context, chainID int64) (Record, error) {
	cs, err := s.GetChainState(ctx, chainID)
	if err != nil {
		return Record{}, err
	}
	if cs.ActiveStrategyID == nil {
		return Record{}, rfqerr.StrategyNotConfigured(chainID)
	}
	rec, err := s.FindByID(ctx, *cs.ActiveStrategyID)
	if err != nil {
		return Record{}, err
	}
	if !rec.Enabled {
		return Record{}, rfqerr.StrategyNotEnabled(rec.ID)
	}
	return rec, nil
}

func (s *PgStore) SetAdvisoryLimits(ctx context.Context, chainID int64, dailyCapUsd float64, maxTradeSizeRaw string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := s.ensureChainStateTx(ctx, tx, chainID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE chain_state SET daily_cap_usd = $1, max_trade_size_raw = $2 WHERE chain_id = $3
	`, dailyCapUsd, maxTradeSizeRaw, chainID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ensureChainStateTx reads the chain_state row for update within tx,
// inserting the default row on first access.
func (s *PgStore) ensureChainStateTx(ctx context.Context, tx pgx.Tx, chainID int64) (ChainState, error) {
	var cs ChainState
	var activeStrategyID *string
	err := tx.QueryRow(ctx, `
		SELECT chain_id, active_strategy_id, paused, daily_cap_usd, COALESCE(max_trade_size_raw, '')
		FROM chain_state WHERE chain_id = $1 FOR UPDATE
	`, chainID).Scan(&cs.ChainID, &activeStrategyID, &cs.Paused, &cs.DailyCapUsd, &cs.MaxTradeSizeRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		_, err = tx.Exec(ctx, `
			INSERT INTO chain_state (chain_id, paused, daily_cap_usd, max_trade_size_raw)
			VALUES ($1, false, 0, '')
			ON CONFLICT (chain_id) DO NOTHING
		`, chainID)
		if err != nil {
			return ChainState{}, err
		}
		return ChainState{ChainID: chainID}, nil
	}
	if err != nil {
		return ChainState{}, err
	}
	cs.ActiveStrategyID = activeStrategyID
	return cs, nil
}
