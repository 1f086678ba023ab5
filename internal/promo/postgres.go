package promo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a UsageStore backed by the promo_code_usages table.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) UsageStore {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "promo").Str("store", "postgres").Logger(),
	}
}

// CheckAndRecord counts and inserts under a transaction-scoped advisory lock
// on the usage key, so concurrent callers for one key run one at a time.
func (s *postgresStore) CheckAndRecord(ctx context.Context, usage Usage, maxUses int) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "promo:"+usage.Key()); err != nil {
		return false, fmt.Errorf("failed to lock promo key: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM promo_code_usages WHERE code = $1 AND client_address = $2 AND restaurant_id = $3`,
		usage.Code, usage.ClientAddress, usage.RestaurantID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count promo usages: %w", err)
	}

	// strictly greater: a limit of N admits N+1 uses
	if count > maxUses {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO promo_code_usages (code, client_address, restaurant_id, expiry, created_at) VALUES ($1, $2, $3, $4, $5)`,
		usage.Code, usage.ClientAddress, usage.RestaurantID, usage.Expiry, usage.CreatedAt,
	); err != nil {
		return false, fmt.Errorf("failed to record promo usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
