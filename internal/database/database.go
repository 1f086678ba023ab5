package database

import (
	"context"
	"fmt"
	"time"

	"menu-advisor/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	applicationName = "menu-advisor"
	retryBackoff    = time.Second
	maxRetryBackoff = 10 * time.Second
)

// Pinger is the part of a connection pool the startup and readiness checks use.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPool creates the order store connection pool. The first ping is retried
// cfg.ConnectRetries times so the API can start alongside its database.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// application_name tags the service's sessions in pg_stat_activity.
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	log := logger.With().
		Str("component", "database").
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := connect(ctx, pool, cfg.ConnectRetries, retryBackoff, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	stat := pool.Stat()
	log.Info().
		Int32("max_connections", stat.MaxConns()).
		Int32("open_connections", stat.TotalConns()).
		Msg("order store connected")

	return pool, nil
}

// connect pings db until it answers, doubling the wait between attempts.
func connect(ctx context.Context, db Pinger, retries int, backoff time.Duration, logger zerolog.Logger) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = db.Ping(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("retry_in", backoff).
			Msg("database not reachable yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

// Ready reports whether db answers within timeout.
func Ready(ctx context.Context, db Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	return nil
}
