package service

import (
	"context"

	"menu-advisor/internal/model"
	"menu-advisor/internal/notification"

	"github.com/google/uuid"
)

// OrderService drives the order lifecycle.
type OrderService interface {
	// CreateOrder validates and stores a new order, then notifies the restaurant.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)

	// SendConfirmationCode issues a one-time code and texts it to the customer.
	SendConfirmationCode(ctx context.Context, req *model.SendCodeRequest) (*model.SendCodeResponse, error)

	// ConfirmCode redeems a code and confirms the order it was issued for.
	ConfirmCode(ctx context.Context, req *model.ConfirmCodeRequest) (*model.ConfirmCodeResponse, error)

	// UpdateOrder applies a partial update on behalf of principal.
	UpdateOrder(ctx context.Context, principal *model.Principal, id uuid.UUID, req *model.UpdateOrderRequest) (*model.Order, error)

	// ValidateOrder marks an order validated and notifies the customer.
	ValidateOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// RevokeOrder marks an order revoked and notifies the customer.
	RevokeOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// DeleteOrders removes orders. Counters are left untouched.
	DeleteOrders(ctx context.Context, ids []uuid.UUID) (int64, error)

	// GetOrder returns an order or nil when it does not exist.
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListOrders returns the orders visible to principal.
	ListOrders(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (*model.OrderListResponse, error)

	// CountOrders counts the orders visible to principal.
	CountOrders(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (int64, error)
}

// PromoService checks promo code usage quotas.
type PromoService interface {
	// VerifyCode records one use of the code by clientAddress, or fails when
	// the quota is exhausted.
	VerifyCode(ctx context.Context, req *model.PromoCodeRequest, clientAddress string) error
}

// DashboardService builds sales summaries.
type DashboardService interface {
	GetDashboard(ctx context.Context, principal *model.Principal) (*model.Dashboard, error)
}

// CounterService exposes the named sequence counters to administrators.
type CounterService interface {
	Current(ctx context.Context, name string) (*model.CounterResponse, error)
	Decrement(ctx context.Context, name string) (*model.CounterResponse, error)
	Reset(ctx context.Context, name string) (*model.CounterResponse, error)
}

// Notifier queues outbound messages. notification.Dispatcher implements it.
type Notifier interface {
	Notify(msg notification.Message)
}
