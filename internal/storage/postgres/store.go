package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapRouter/internal/model"
)

// Store provides Postgres persistence for the trade journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertTrades appends trade records for a run.
func (s *Store) InsertTrades(ctx context.Context, runID string, trades []model.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tr := range trades {
		batch.Queue(`
			INSERT INTO trades (
				run_id, seq, op, caller, token, recipient,
				amount_in, amount_out, amount_token, amount_native, liquidity,
				status, error, executed_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (run_id, seq) DO NOTHING
		`,
			runID,
			tr.Seq,
			tr.Op,
			tr.Caller,
			tr.Token,
			tr.Recipient,
			tr.AmountIn,
			tr.AmountOut,
			tr.AmountToken,
			tr.AmountNative,
			tr.Liquidity,
			tr.Status,
			tr.Error,
			tr.ExecutedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range trades {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPools inserts or updates the final pool states of a run.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRecord) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pair_address, token0, token1, reserve0, reserve1, total_supply, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (pair_address)
			DO UPDATE SET
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				total_supply = EXCLUDED.total_supply,
				updated_at = now()
		`,
			pool.Pair,
			pool.Token0,
			pool.Token1,
			pool.Reserve0,
			pool.Reserve1,
			pool.TotalSupply,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
