package sequence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// DB is the subset of pgxpool.Pool used by the Postgres counter.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Each statement is a single upsert, so concurrent callers are serialized by
// the row lock taken on conflict.
const (
	nextQuery = `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`
	currentQuery = `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value
		RETURNING value
	`
	decrementQuery = `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value - 1
		RETURNING value
	`
	setQuery = `
		INSERT INTO counters (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
		RETURNING value
	`
)

type postgresCounter struct {
	db     DB
	logger zerolog.Logger
}

// NewPostgresCounter creates a counter backed by the counters table.
func NewPostgresCounter(db DB, logger zerolog.Logger) Counter {
	return &postgresCounter{
		db:     db,
		logger: logger.With().Str("component", "sequence").Str("store", "postgres").Logger(),
	}
}

func (c *postgresCounter) Next(ctx context.Context, name string) (int64, error) {
	return c.exec(ctx, "next", name, nextQuery, name)
}

func (c *postgresCounter) Current(ctx context.Context, name string) (int64, error) {
	return c.exec(ctx, "current", name, currentQuery, name)
}

func (c *postgresCounter) Decrement(ctx context.Context, name string) (int64, error) {
	return c.exec(ctx, "decrement", name, decrementQuery, name)
}

func (c *postgresCounter) Reset(ctx context.Context, name string) (int64, error) {
	return c.exec(ctx, "reset", name, setQuery, name, int64(0))
}

func (c *postgresCounter) Set(ctx context.Context, name string, value int64) (int64, error) {
	return c.exec(ctx, "set", name, setQuery, name, value)
}

func (c *postgresCounter) exec(ctx context.Context, op, name, query string, args ...any) (int64, error) {
	var value int64
	if err := c.db.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("counter", name).Msg("counter update failed")
		return 0, storageErr(op, name, err)
	}

	c.logger.Debug().Str("op", op).Str("counter", name).Int64("value", value).Msg("counter updated")
	return value, nil
}
