package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"menu-advisor/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, code, command_type, status, restaurant_id, related_user_id, customer,
	items, menus, total_price, total_price_sans_remise, discount_price, delivery_price,
	priceless, fulfilment, comment, payed, code_promo, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	normaliseLines(order)

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Code,
		order.CommandType,
		order.Status,
		order.Restaurant,
		order.RelatedUser,
		order.Customer,
		order.Items,
		order.Menus,
		order.TotalPrice,
		order.TotalPriceSansRemise,
		order.DiscountPrice,
		order.DeliveryPrice,
		order.Priceless,
		order.Fulfilment,
		order.Comment,
		order.Payed,
		order.CodePromo,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int64("code", order.Code).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int64("code", order.Code).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// Update overwrites every mutable column. Code and command type never change.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) (bool, error) {
	normaliseLines(order)

	query := `
		UPDATE orders SET
			status = $2,
			restaurant_id = $3,
			related_user_id = $4,
			customer = $5,
			items = $6,
			menus = $7,
			total_price = $8,
			total_price_sans_remise = $9,
			discount_price = $10,
			delivery_price = $11,
			priceless = $12,
			fulfilment = $13,
			comment = $14,
			payed = $15,
			code_promo = $16,
			updated_at = $17
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Status,
		order.Restaurant,
		order.RelatedUser,
		order.Customer,
		order.Items,
		order.Menus,
		order.TotalPrice,
		order.TotalPriceSansRemise,
		order.DiscountPrice,
		order.DeliveryPrice,
		order.Priceless,
		order.Fulfilment,
		order.Comment,
		order.Payed,
		order.CodePromo,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return false, fmt.Errorf("failed to update order: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateStatus sets the lifecycle status in a single statement.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns

	return r.updateStatus(ctx, query, id, status, id, status)
}

// UpdateStatusFrom moves an order to status only while it is still in from.
func (r *orderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	return r.updateStatus(ctx, query, id, to, id, from, to)
}

func (r *orderRepository) updateStatus(ctx context.Context, query string, id uuid.UUID, status model.OrderStatus, args ...interface{}) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return order, nil
}

// Delete removes the given orders.
func (r *orderRepository) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to delete orders")
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}

	r.logger.Debug().
		Int("requested", len(ids)).
		Int64("deleted", tag.RowsAffected()).
		Msg("orders deleted")

	return tag.RowsAffected(), nil
}

// List returns the orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	where, args := buildOrderFilter(filter)

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, code DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Count returns the number of orders matching the filter.
func (r *orderRepository) Count(ctx context.Context, filter model.OrderFilter) (int64, error) {
	where, args := buildOrderFilter(filter)

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// buildOrderFilter renders the WHERE clause of list and count queries.
func buildOrderFilter(filter model.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CommandType != "" {
		add("command_type = $%d", filter.CommandType)
	}
	if filter.RestaurantID != nil {
		add("restaurant_id = $%d", *filter.RestaurantID)
	}
	if filter.Restaurants != nil {
		add("restaurant_id = ANY($%d::uuid[])", uuidStrings(filter.Restaurants))
	}
	if filter.RelatedUser != nil {
		add("related_user_id = $%d", *filter.RelatedUser)
	}
	if filter.Start != nil {
		add("created_at >= $%d", *filter.Start)
	}
	if filter.End != nil {
		add("created_at < $%d", *filter.End)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.CommandType,
		&o.Status,
		&o.Restaurant,
		&o.RelatedUser,
		&o.Customer,
		&o.Items,
		&o.Menus,
		&o.TotalPrice,
		&o.TotalPriceSansRemise,
		&o.DiscountPrice,
		&o.DeliveryPrice,
		&o.Priceless,
		&o.Fulfilment,
		&o.Comment,
		&o.Payed,
		&o.CodePromo,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	normaliseLines(&o)
	return &o, nil
}

// normaliseLines keeps items and menus serialised as arrays, never null.
func normaliseLines(o *model.Order) {
	if o.Items == nil {
		o.Items = []model.LineItem{}
	}
	if o.Menus == nil {
		o.Menus = []model.MenuLine{}
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
