package repository

import (
	"context"
	"errors"
	"fmt"

	"menu-advisor/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// restaurantRepository implements the RestaurantRepository interface using PostgreSQL.
type restaurantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRestaurantRepository creates a new PostgreSQL-backed restaurant repository.
func NewRestaurantRepository(pool *pgxpool.Pool, logger zerolog.Logger) RestaurantRepository {
	return &restaurantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "restaurant").Logger(),
	}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	query := `
		INSERT INTO restaurants (id, name, phone_number, delivery, sur_place, a_emporter, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.PhoneNumber,
		restaurant.Delivery,
		restaurant.SurPlace,
		restaurant.AEmporter,
		restaurant.Admin,
		restaurant.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("restaurant_id", restaurant.ID.String()).Msg("failed to create restaurant")
		return fmt.Errorf("failed to create restaurant: %w", err)
	}

	return nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	query := `
		SELECT id, name, phone_number, delivery, sur_place, a_emporter, admin_id, created_at
		FROM restaurants
		WHERE id = $1
	`

	var restaurant model.Restaurant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.PhoneNumber,
		&restaurant.Delivery,
		&restaurant.SurPlace,
		&restaurant.AEmporter,
		&restaurant.Admin,
		&restaurant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("restaurant_id", id.String()).Msg("restaurant not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("restaurant_id", id.String()).Msg("failed to query restaurant")
		return nil, fmt.Errorf("failed to query restaurant: %w", err)
	}

	return &restaurant, nil
}

func (r *restaurantRepository) ListIDsByAdmin(ctx context.Context, adminID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM restaurants WHERE admin_id = $1 ORDER BY created_at`, adminID)
	if err != nil {
		r.logger.Error().Err(err).Str("admin_id", adminID.String()).Msg("failed to query administered restaurants")
		return nil, fmt.Errorf("failed to query administered restaurants: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restaurant ids: %w", err)
	}

	return ids, nil
}
