package handler

import (
	"context"
	"net/http"

	"menu-advisor/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) SendConfirmationCode(ctx context.Context, req *model.SendCodeRequest) (*model.SendCodeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendCodeResponse), args.Error(1)
}

func (m *MockOrderService) ConfirmCode(ctx context.Context, req *model.ConfirmCodeRequest) (*model.ConfirmCodeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfirmCodeResponse), args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, principal *model.Principal, id uuid.UUID, req *model.UpdateOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, principal, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ValidateOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) RevokeOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrders(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (*model.OrderListResponse, error) {
	args := m.Called(ctx, principal, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderListResponse), args.Error(1)
}

func (m *MockOrderService) CountOrders(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (int64, error) {
	args := m.Called(ctx, principal, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockPromoService is a mock implementation of service.PromoService.
type MockPromoService struct {
	mock.Mock
}

func (m *MockPromoService) VerifyCode(ctx context.Context, req *model.PromoCodeRequest, clientAddress string) error {
	return m.Called(ctx, req, clientAddress).Error(0)
}

// MockDashboardService is a mock implementation of service.DashboardService.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) GetDashboard(ctx context.Context, principal *model.Principal) (*model.Dashboard, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dashboard), args.Error(1)
}

// MockCounterService is a mock implementation of service.CounterService.
type MockCounterService struct {
	mock.Mock
}

func (m *MockCounterService) Current(ctx context.Context, name string) (*model.CounterResponse, error) {
	return m.result(m.Called(ctx, name))
}

func (m *MockCounterService) Decrement(ctx context.Context, name string) (*model.CounterResponse, error) {
	return m.result(m.Called(ctx, name))
}

func (m *MockCounterService) Reset(ctx context.Context, name string) (*model.CounterResponse, error) {
	return m.result(m.Called(ctx, name))
}

func (m *MockCounterService) result(args mock.Arguments) (*model.CounterResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CounterResponse), args.Error(1)
}

// withURLParams attaches chi route parameters to req.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
