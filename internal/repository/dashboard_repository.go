package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menu-advisor/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type dashboardRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDashboardRepository creates a repository computing sales aggregates.
func NewDashboardRepository(pool *pgxpool.Pool, logger zerolog.Logger) DashboardRepository {
	return &dashboardRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "dashboard").Logger(),
	}
}

// PeriodStats counts orders and sums their total price. Revoked orders are
// excluded from both figures.
func (r *dashboardRepository) PeriodStats(ctx context.Context, from, to time.Time, restaurants []uuid.UUID) (*model.PeriodStats, error) {
	stats := &model.PeriodStats{From: from, To: to}

	scope := ""
	args := []any{from, to}
	if restaurants != nil {
		scope = " AND restaurant_id = ANY($3::uuid[])"
		args = append(args, uuidStrings(restaurants))
	}

	totals := `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> 'revoked'` + scope

	if err := r.pool.QueryRow(ctx, totals, args...).Scan(&stats.Count, &stats.Revenue); err != nil {
		r.logger.Error().Err(err).Time("from", from).Time("to", to).Msg("failed to aggregate orders")
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	if stats.Count == 0 {
		return stats, nil
	}

	best := `
		SELECT r.id, r.name, COUNT(*) AS orders
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.created_at >= $1 AND o.created_at < $2 AND o.status <> 'revoked'` + scopeAlias(scope) + `
		GROUP BY r.id, r.name
		ORDER BY orders DESC, r.name
		LIMIT 1`

	var br model.BestRestaurant
	err := r.pool.QueryRow(ctx, best, args...).Scan(&br.ID, &br.Name, &br.Count)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		r.logger.Error().Err(err).Msg("failed to find best restaurant")
		return nil, fmt.Errorf("failed to find best restaurant: %w", err)
	default:
		stats.BestRestaurant = &br
	}

	return stats, nil
}

func scopeAlias(scope string) string {
	if scope == "" {
		return ""
	}
	return " AND o.restaurant_id = ANY($3::uuid[])"
}
