package service

import (
	"context"
	"sync"
	"time"

	"menu-advisor/internal/confirmation"
	"menu-advisor/internal/model"
	"menu-advisor/internal/notification"
	"menu-advisor/internal/promo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memOrderRepository is an in-memory OrderRepository.
type memOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]model.Order
	err    error
}

func newMemOrderRepository() *memOrderRepository {
	return &memOrderRepository{orders: make(map[uuid.UUID]model.Order)}
}

func (r *memOrderRepository) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *memOrderRepository) Update(_ context.Context, order *model.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return false, nil
	}
	r.orders[order.ID] = *order
	return true, nil
}

func (r *memOrderRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	r.orders[id] = o
	return &o, nil
}

func (r *memOrderRepository) UpdateStatusFrom(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return nil, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	r.orders[id] = o
	return &o, nil
}

func (r *memOrderRepository) Delete(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.orders[id]; ok {
			delete(r.orders, id)
			n++
		}
	}
	return n, nil
}

func (r *memOrderRepository) List(_ context.Context, _ model.OrderFilter) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *memOrderRepository) Count(_ context.Context, _ model.OrderFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *memOrderRepository) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *model.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter model.OrderFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockRestaurantRepository is a mock implementation of RestaurantRepository.
type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	return m.Called(ctx, restaurant).Error(0)
}

func (m *MockRestaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) ListIDsByAdmin(ctx context.Context, adminID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockDashboardRepository is a mock implementation of DashboardRepository.
type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) PeriodStats(ctx context.Context, from, to time.Time, restaurants []uuid.UUID) (*model.PeriodStats, error) {
	args := m.Called(ctx, from, to, restaurants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PeriodStats), args.Error(1)
}

// MockCounter is a mock implementation of sequence.Counter.
type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Next(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) Current(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) Decrement(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) Reset(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) Set(ctx context.Context, name string, value int64) (int64, error) {
	args := m.Called(ctx, name, value)
	return args.Get(0).(int64), args.Error(1)
}

// MockGate is a mock implementation of confirmation.Gate.
type MockGate struct {
	mock.Mock
}

func (m *MockGate) Issue(ctx context.Context, subject string, t confirmation.Type, payload string) (*confirmation.Challenge, error) {
	args := m.Called(ctx, subject, t, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*confirmation.Challenge), args.Error(1)
}

func (m *MockGate) Verify(ctx context.Context, subject string, t confirmation.Type, code string) (*confirmation.Record, error) {
	args := m.Called(ctx, subject, t, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*confirmation.Record), args.Error(1)
}

func (m *MockGate) VerifyToken(ctx context.Context, token, code string) (*confirmation.Record, error) {
	args := m.Called(ctx, token, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*confirmation.Record), args.Error(1)
}

func (m *MockGate) Purge(ctx context.Context, subject string, t confirmation.Type) error {
	return m.Called(ctx, subject, t).Error(0)
}

// MockGuard is a mock implementation of promo.Guard.
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) CheckAndRecord(ctx context.Context, usage promo.Usage, maxUses int) (bool, error) {
	args := m.Called(ctx, usage, maxUses)
	return args.Bool(0), args.Error(1)
}

// recordingNotifier keeps every queued message.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (n *recordingNotifier) Notify(msg notification.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) sent() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.msgs...)
}
