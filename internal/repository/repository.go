package repository

import (
	"context"
	"time"

	"menu-advisor/internal/model"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order by its ID. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// Update overwrites every mutable column of an existing order.
	// Returns false when the order does not exist.
	Update(ctx context.Context, order *model.Order) (bool, error)

	// UpdateStatus moves an order to the given status and returns the stored
	// order. Returns nil when it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// UpdateStatusFrom moves an order from one status to another atomically.
	// Returns nil when the order does not exist or is no longer in from.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error)

	// Delete removes the given orders and reports how many were deleted.
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)

	// List returns the orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// Count returns the number of orders matching the filter.
	Count(ctx context.Context, filter model.OrderFilter) (int64, error)
}

// RestaurantRepository defines the restaurant lookups the order flow needs.
type RestaurantRepository interface {
	// Create inserts a restaurant.
	Create(ctx context.Context, restaurant *model.Restaurant) error

	// GetByID retrieves a restaurant. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error)

	// ListIDsByAdmin returns the restaurants administered by the given user.
	ListIDsByAdmin(ctx context.Context, adminID uuid.UUID) ([]uuid.UUID, error)
}

// UserRepository defines the user lookups the order flow needs.
type UserRepository interface {
	// Create inserts a user.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// DashboardRepository aggregates sales figures.
type DashboardRepository interface {
	// PeriodStats aggregates orders created in [from, to). A nil restaurant
	// list means every restaurant; an empty one matches nothing.
	PeriodStats(ctx context.Context, from, to time.Time, restaurants []uuid.UUID) (*model.PeriodStats, error)
}
