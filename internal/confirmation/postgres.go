package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a Store backed by the confirmation_codes table.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) Store {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "confirmation").Str("store", "postgres").Logger(),
	}
}

func (s *postgresStore) Replace(ctx context.Context, rec Record, _ time.Duration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// serialize concurrent issues for the same subject so only one code survives
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(rec.Subject, rec.Type)); err != nil {
		return fmt.Errorf("failed to lock confirmation subject: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM confirmation_codes WHERE subject = $1 AND type = $2`,
		rec.Subject, string(rec.Type),
	); err != nil {
		return fmt.Errorf("failed to delete previous codes: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO confirmation_codes (subject, type, code, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.Subject, string(rec.Type), rec.Code, rec.Payload, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert code: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *postgresStore) Consume(ctx context.Context, subject string, t Type, code string, notBefore time.Time) (*Record, error) {
	query := `
		DELETE FROM confirmation_codes
		WHERE id = (
			SELECT id FROM confirmation_codes
			WHERE subject = $1 AND type = $2 AND code = $3 AND created_at > $4
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING subject, type, code, payload, created_at
	`

	var (
		rec     Record
		recType string
	)
	err := s.pool.QueryRow(ctx, query, subject, string(t), code, notBefore).Scan(
		&rec.Subject,
		&recType,
		&rec.Code,
		&rec.Payload,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}

	rec.Type = Type(recType)
	return &rec, nil
}

func (s *postgresStore) Purge(ctx context.Context, subject string, t Type) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM confirmation_codes WHERE subject = $1 AND type = $2`,
		subject, string(t),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *postgresStore) PurgeExpired(ctx context.Context, notBefore time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM confirmation_codes WHERE created_at <= $1`, notBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func lockKey(subject string, t Type) string {
	return "confirmation:" + string(t) + ":" + subject
}
