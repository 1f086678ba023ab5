package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"menu-advisor/internal/confirmation"
	"menu-advisor/internal/model"
	"menu-advisor/internal/sequence"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc         OrderService
	orders      *memOrderRepository
	restaurants *MockRestaurantRepository
	users       *MockUserRepository
	counter     *MockCounter
	gate        *MockGate
	notifier    *recordingNotifier
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:      newMemOrderRepository(),
		restaurants: new(MockRestaurantRepository),
		users:       new(MockUserRepository),
		counter:     new(MockCounter),
		gate:        new(MockGate),
		notifier:    &recordingNotifier{},
	}
	f.svc = NewOrderService(f.orders, f.restaurants, f.users, f.counter, f.gate, f.notifier, zerolog.Nop())
	return f
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *orderFixture) seed(o model.Order) *model.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_ = f.orders.Create(context.Background(), &o)
	return &o
}

func TestOrderService_CreateOrder_Delivery(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	restaurant := &model.Restaurant{ID: uuid.New(), Name: "Chez Test", PhoneNumber: "+33100000000", Delivery: true}
	f.restaurants.On("GetByID", mock.Anything, restaurant.ID).Return(restaurant, nil)
	f.counter.On("Next", mock.Anything, sequence.Command).Return(int64(42), nil)
	f.gate.On("Purge", mock.Anything, "+33600000000", confirmation.TypeNewCommand).Return(nil)

	req := &model.CreateOrderRequest{
		CommandType: model.CommandTypeDelivery,
		Restaurant:  &restaurant.ID,
		Customer:    &model.Customer{Name: "Jane", PhoneNumber: "+33600000000"},
		Items:       []model.LineItem{{Quantity: 2, Item: "margherita"}},
		TotalPrice:  dec("24.00"),
		Fulfilment: model.Fulfilment{
			ShippingAddress:      "1 rue de la Paix",
			ShipAsSoonAsPossible: true,
		},
	}

	order, err := f.svc.CreateOrder(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, int64(42), order.Code)
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	assert.True(t, decimal.RequireFromString("24").Equal(order.TotalPrice))
	assert.Equal(t, 1, f.orders.len())

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+33100000000", sent[0].To)
	assert.Contains(t, sent[0].Text, "#42")

	f.counter.AssertExpectations(t)
	f.gate.AssertExpectations(t)
}

func TestOrderService_CreateOrder_RejectedBeforeClaim(t *testing.T) {
	noDelivery := &model.Restaurant{ID: uuid.New(), Delivery: false, SurPlace: true, AEmporter: true}
	unknown := uuid.New()
	phoneless := uuid.New()
	customer := &model.Customer{PhoneNumber: "+33600000000"}
	shipping := model.Fulfilment{ShippingAddress: "1 rue de la Paix", ShipAsSoonAsPossible: true}

	tests := []struct {
		name    string
		req     *model.CreateOrderRequest
		setup   func(f *orderFixture)
		wantErr error
	}{
		{
			name:    "Unknown command type",
			req:     &model.CreateOrderRequest{CommandType: "drive", TotalPrice: dec("1")},
			wantErr: model.ErrInvalidCommandType,
		},
		{
			name:    "Missing command type",
			req:     &model.CreateOrderRequest{TotalPrice: dec("1")},
			wantErr: model.ErrInvalidCommandType,
		},
		{
			name:    "Null total price",
			req:     &model.CreateOrderRequest{CommandType: model.CommandTypeOnSite},
			wantErr: model.ErrMissingField,
		},
		{
			name:    "Negative total price",
			req:     &model.CreateOrderRequest{CommandType: model.CommandTypeOnSite, TotalPrice: dec("-1")},
			wantErr: model.ErrInvalidPrice,
		},
		{
			name: "Zero quantity",
			req: &model.CreateOrderRequest{
				CommandType: model.CommandTypeOnSite,
				TotalPrice:  dec("1"),
				Items:       []model.LineItem{{Quantity: 0, Item: "x"}},
			},
			wantErr: model.ErrInvalidQuantity,
		},
		{
			name:    "Delivery without address",
			req:     &model.CreateOrderRequest{CommandType: model.CommandTypeDelivery, TotalPrice: dec("1"), Customer: customer},
			wantErr: model.ErrShippingDetails,
		},
		{
			name: "Delivery without time",
			req: &model.CreateOrderRequest{
				CommandType: model.CommandTypeDelivery,
				TotalPrice:  dec("1"),
				Customer:    customer,
				Fulfilment:  model.Fulfilment{ShippingAddress: "somewhere"},
			},
			wantErr: model.ErrShippingDetails,
		},
		{
			name: "Unknown restaurant",
			req:  &model.CreateOrderRequest{CommandType: model.CommandTypeOnSite, TotalPrice: dec("1"), Restaurant: &unknown},
			setup: func(f *orderFixture) {
				f.restaurants.On("GetByID", mock.Anything, unknown).Return(nil, nil)
			},
			wantErr: model.ErrRestaurantNotFound,
		},
		{
			name: "Restaurant without delivery",
			req: &model.CreateOrderRequest{
				CommandType: model.CommandTypeDelivery,
				TotalPrice:  dec("1"),
				Restaurant:  &noDelivery.ID,
				Customer:    customer,
				Fulfilment:  shipping,
			},
			setup: func(f *orderFixture) {
				f.restaurants.On("GetByID", mock.Anything, noDelivery.ID).Return(noDelivery, nil)
			},
			wantErr: model.ErrUnsupportedCommandType,
		},
		{
			name:    "Takeaway without contact",
			req:     &model.CreateOrderRequest{CommandType: model.CommandTypeTakeaway, TotalPrice: dec("1")},
			wantErr: model.ErrNoContactPhone,
		},
		{
			name: "Takeaway for user without phone",
			req:  &model.CreateOrderRequest{CommandType: model.CommandTypeTakeaway, TotalPrice: dec("1"), RelatedUser: &phoneless},
			setup: func(f *orderFixture) {
				f.users.On("GetByID", mock.Anything, phoneless).Return(&model.User{ID: phoneless}, nil)
			},
			wantErr: model.ErrNoContactPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			order, err := f.svc.CreateOrder(context.Background(), tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, order)
			assert.Zero(t, f.orders.len())
			assert.Empty(t, f.notifier.sent())
			f.counter.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_CreateOrder_PricelessZeroTotal(t *testing.T) {
	f := newOrderFixture()
	f.counter.On("Next", mock.Anything, sequence.Command).Return(int64(1), nil)

	order, err := f.svc.CreateOrder(context.Background(), &model.CreateOrderRequest{
		CommandType: model.CommandTypeOnSite,
		TotalPrice:  dec("0"),
		Priceless:   true,
	})

	require.NoError(t, err)
	assert.True(t, order.TotalPrice.IsZero())
	assert.True(t, order.Priceless)
	assert.Equal(t, 1, f.orders.len())
	f.gate.AssertNotCalled(t, "Purge", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_AwaitConfirmation(t *testing.T) {
	f := newOrderFixture()
	user := &model.User{ID: uuid.New(), PhoneNumber: "+33611111111"}
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.counter.On("Next", mock.Anything, sequence.Command).Return(int64(3), nil)
	f.gate.On("Purge", mock.Anything, user.ID.String(), confirmation.TypeNewCommand).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), &model.CreateOrderRequest{
		CommandType:       model.CommandTypeTakeaway,
		RelatedUser:       &user.ID,
		TotalPrice:        dec("9.90"),
		AwaitConfirmation: true,
	})

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCreated, order.Status)
	f.gate.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Failures(t *testing.T) {
	t.Run("Counter unavailable", func(t *testing.T) {
		f := newOrderFixture()
		f.counter.On("Next", mock.Anything, sequence.Command).
			Return(int64(0), fmt.Errorf("%w: next %q: %w", sequence.ErrStorage, "command", errors.New("conn refused")))

		_, err := f.svc.CreateOrder(context.Background(), &model.CreateOrderRequest{
			CommandType: model.CommandTypeOnSite,
			TotalPrice:  dec("1"),
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, sequence.ErrStorage)
		assert.Zero(t, f.orders.len())
	})

	t.Run("Persistence fails after claim", func(t *testing.T) {
		f := newOrderFixture()
		f.orders.err = errors.New("disk full")
		f.counter.On("Next", mock.Anything, sequence.Command).Return(int64(8), nil)

		_, err := f.svc.CreateOrder(context.Background(), &model.CreateOrderRequest{
			CommandType: model.CommandTypeOnSite,
			TotalPrice:  dec("1"),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		f.counter.AssertNumberOfCalls(t, "Next", 1)
	})

	t.Run("Purge failure is not fatal", func(t *testing.T) {
		f := newOrderFixture()
		f.counter.On("Next", mock.Anything, sequence.Command).Return(int64(9), nil)
		f.gate.On("Purge", mock.Anything, "+33600000000", confirmation.TypeNewCommand).Return(confirmation.ErrStorage)

		order, err := f.svc.CreateOrder(context.Background(), &model.CreateOrderRequest{
			CommandType: model.CommandTypeTakeaway,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
			TotalPrice:  dec("1"),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(9), order.Code)
	})
}

func TestOrderService_CreateOrder_SurvivesClientCancellation(t *testing.T) {
	f := newOrderFixture()
	ctx, cancel := context.WithCancel(context.Background())

	f.counter.On("Next", mock.Anything, sequence.Command).
		Run(func(mock.Arguments) { cancel() }).
		Return(int64(5), nil)
	f.gate.On("Purge", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), "+33600000000", confirmation.TypeNewCommand).
		Return(nil)

	order, err := f.svc.CreateOrder(ctx, &model.CreateOrderRequest{
		CommandType: model.CommandTypeTakeaway,
		Customer:    &model.Customer{PhoneNumber: "+33600000000"},
		TotalPrice:  dec("4"),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), order.Code)
	f.gate.AssertExpectations(t)
}

func TestOrderService_SendConfirmationCode(t *testing.T) {
	t.Run("Issues and texts code", func(t *testing.T) {
		f := newOrderFixture()
		pending := f.seed(model.Order{
			CommandType: model.CommandTypeDelivery,
			Status:      model.OrderStatusCreated,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
		})
		expires := time.Now().Add(5 * time.Minute)
		f.gate.On("Issue", mock.Anything, "+33600000000", confirmation.TypeNewCommand, pending.ID.String()).
			Return(&confirmation.Challenge{Code: "0421", Token: "signed", ExpiresAt: expires}, nil)

		resp, err := f.svc.SendConfirmationCode(context.Background(), &model.SendCodeRequest{
			CommandType: model.CommandTypeDelivery,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
			Command:     &pending.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, "0421", resp.Code)
		assert.Equal(t, "signed", resp.Token)
		assert.Equal(t, expires, resp.ExpiresAt)

		sent := f.notifier.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "+33600000000", sent[0].To)
		assert.Contains(t, sent[0].Text, "0421")
	})

	t.Run("Order placed by another customer", func(t *testing.T) {
		f := newOrderFixture()
		victim := f.seed(model.Order{
			CommandType: model.CommandTypeTakeaway,
			Status:      model.OrderStatusCreated,
			Customer:    &model.Customer{PhoneNumber: "+33600000001"},
		})

		_, err := f.svc.SendConfirmationCode(context.Background(), &model.SendCodeRequest{
			CommandType: model.CommandTypeTakeaway,
			Customer:    &model.Customer{PhoneNumber: "+33699999999"},
			Command:     &victim.ID,
		})

		assert.ErrorIs(t, err, model.ErrInvalidConfirmationCode)
		f.gate.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.notifier.sent())
	})

	t.Run("Unknown order", func(t *testing.T) {
		f := newOrderFixture()
		missing := uuid.New()

		_, err := f.svc.SendConfirmationCode(context.Background(), &model.SendCodeRequest{
			CommandType: model.CommandTypeTakeaway,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
			Command:     &missing,
		})

		assert.ErrorIs(t, err, model.ErrCommandNotFound)
		f.gate.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Delivery without phone", func(t *testing.T) {
		f := newOrderFixture()

		_, err := f.svc.SendConfirmationCode(context.Background(), &model.SendCodeRequest{
			CommandType: model.CommandTypeDelivery,
		})

		assert.ErrorIs(t, err, model.ErrNoContactPhone)
		f.gate.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid command type", func(t *testing.T) {
		f := newOrderFixture()

		_, err := f.svc.SendConfirmationCode(context.Background(), &model.SendCodeRequest{CommandType: "drone"})

		assert.ErrorIs(t, err, model.ErrInvalidCommandType)
	})

	t.Run("Storage failure", func(t *testing.T) {
		f := newOrderFixture()
		f.gate.On("Issue", mock.Anything, "+33600000000", confirmation.TypeNewCommand, "").
			Return(nil, fmt.Errorf("%w: boom", confirmation.ErrStorage))

		_, err := f.svc.SendConfirmationCode(context.Background(), &model.SendCodeRequest{
			CommandType: model.CommandTypeTakeaway,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
		})

		assert.ErrorIs(t, err, confirmation.ErrStorage)
		assert.Empty(t, f.notifier.sent())
	})
}

func TestOrderService_ConfirmCode(t *testing.T) {
	t.Run("Missing code or token", func(t *testing.T) {
		f := newOrderFixture()
		for _, req := range []*model.ConfirmCodeRequest{
			{Token: "t"},
			{Code: "1234"},
			{Code: "  ", Token: "t"},
		} {
			_, err := f.svc.ConfirmCode(context.Background(), req)
			assert.ErrorIs(t, err, model.ErrMissingConfirmationCode)
		}
		f.gate.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid code", func(t *testing.T) {
		f := newOrderFixture()
		f.gate.On("VerifyToken", mock.Anything, "t", "0000").Return(nil, confirmation.ErrInvalidCode)

		_, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "0000", Token: "t"})

		assert.ErrorIs(t, err, model.ErrInvalidConfirmationCode)
	})

	t.Run("Store failure is not a wrong code", func(t *testing.T) {
		f := newOrderFixture()
		f.gate.On("VerifyToken", mock.Anything, "t", "0000").Return(nil, fmt.Errorf("%w: down", confirmation.ErrStorage))

		_, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "0000", Token: "t"})

		assert.ErrorIs(t, err, confirmation.ErrStorage)
		assert.NotErrorIs(t, err, model.ErrInvalidConfirmationCode)
	})

	t.Run("Confirms pending order", func(t *testing.T) {
		f := newOrderFixture()
		pending := f.seed(model.Order{
			Code:        11,
			CommandType: model.CommandTypeTakeaway,
			Status:      model.OrderStatusCreated,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
		})
		f.gate.On("VerifyToken", mock.Anything, "t", "1234").
			Return(&confirmation.Record{Subject: "+33600000000", Payload: pending.ID.String()}, nil)

		resp, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "1234", Token: "t"})

		require.NoError(t, err)
		require.NotNil(t, resp.Command)
		assert.Equal(t, model.OrderStatusConfirmed, resp.Command.Status)

		stored, _ := f.orders.GetByID(context.Background(), pending.ID)
		assert.Equal(t, model.OrderStatusConfirmed, stored.Status)
		require.Len(t, f.notifier.sent(), 1)
		assert.Contains(t, f.notifier.sent()[0].Text, "#11")
	})

	t.Run("Code issued to another customer", func(t *testing.T) {
		f := newOrderFixture()
		victim := f.seed(model.Order{
			Code:        12,
			CommandType: model.CommandTypeTakeaway,
			Status:      model.OrderStatusCreated,
			Customer:    &model.Customer{PhoneNumber: "+33600000001"},
		})
		f.gate.On("VerifyToken", mock.Anything, "t", "1234").
			Return(&confirmation.Record{Subject: "+33699999999"}, nil)

		_, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "1234", Token: "t", Command: &victim.ID})

		assert.ErrorIs(t, err, model.ErrInvalidConfirmationCode)
		stored, _ := f.orders.GetByID(context.Background(), victim.ID)
		assert.Equal(t, model.OrderStatusCreated, stored.Status)
		assert.Empty(t, f.notifier.sent())
	})

	t.Run("Registered user confirms own order", func(t *testing.T) {
		f := newOrderFixture()
		owner := uuid.New()
		pending := f.seed(model.Order{
			Code:        13,
			CommandType: model.CommandTypeOnSite,
			Status:      model.OrderStatusCreated,
			RelatedUser: &owner,
		})
		f.gate.On("VerifyToken", mock.Anything, "t", "1234").
			Return(&confirmation.Record{Subject: owner.String(), Payload: pending.ID.String()}, nil)
		f.users.On("GetByID", mock.Anything, owner).Return(nil, nil)

		resp, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "1234", Token: "t"})

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusConfirmed, resp.Command.Status)
	})

	t.Run("Order validated while confirming", func(t *testing.T) {
		orders := new(MockOrderRepository)
		pending := &model.Order{
			ID:          uuid.New(),
			CommandType: model.CommandTypeTakeaway,
			Status:      model.OrderStatusCreated,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
		}
		validated := *pending
		validated.Status = model.OrderStatusValidated

		orders.On("GetByID", mock.Anything, pending.ID).Return(pending, nil).Once()
		orders.On("UpdateStatusFrom", mock.Anything, pending.ID, model.OrderStatusCreated, model.OrderStatusConfirmed).Return(nil, nil)
		orders.On("GetByID", mock.Anything, pending.ID).Return(&validated, nil).Once()

		gate := new(MockGate)
		gate.On("VerifyToken", mock.Anything, "t", "1234").
			Return(&confirmation.Record{Subject: "+33600000000", Payload: pending.ID.String()}, nil)
		notifier := &recordingNotifier{}
		svc := NewOrderService(orders, new(MockRestaurantRepository), new(MockUserRepository), new(MockCounter), gate, notifier, zerolog.Nop())

		resp, err := svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "1234", Token: "t"})

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusValidated, resp.Command.Status)
		assert.Empty(t, notifier.sent())
		orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		orders.AssertExpectations(t)
	})

	t.Run("Challenge for another order", func(t *testing.T) {
		f := newOrderFixture()
		other := uuid.New()
		f.gate.On("VerifyToken", mock.Anything, "t", "1234").
			Return(&confirmation.Record{Payload: uuid.NewString()}, nil)

		_, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "1234", Token: "t", Command: &other})

		assert.ErrorIs(t, err, model.ErrInvalidConfirmationCode)
	})

	t.Run("No order referenced", func(t *testing.T) {
		f := newOrderFixture()
		f.gate.On("VerifyToken", mock.Anything, "t", "1234").Return(&confirmation.Record{}, nil)

		resp, err := f.svc.ConfirmCode(context.Background(), &model.ConfirmCodeRequest{Code: "1234", Token: "t"})

		require.NoError(t, err)
		assert.Nil(t, resp.Command)
		assert.Empty(t, f.notifier.sent())
	})
}

func TestOrderService_UpdateOrder(t *testing.T) {
	owner := uuid.New()
	comment := "extra napkins"
	yes := true
	items := []model.LineItem{{Quantity: 1, Item: "tiramisu"}}
	onSite := "on_site"
	code := int64(99)

	tests := []struct {
		name       string
		principal  *model.Principal
		status     model.OrderStatus
		missing    bool
		req        *model.UpdateOrderRequest
		wantErr    error
		wantStatus model.OrderStatus
	}{
		{
			name:    "Anonymous caller",
			req:     &model.UpdateOrderRequest{Comment: &comment},
			wantErr: model.ErrUnauthorised,
		},
		{
			name:      "Someone else's order",
			principal: &model.Principal{ID: uuid.New(), Roles: []string{model.RoleUser}},
			req:       &model.UpdateOrderRequest{Comment: &comment},
			wantErr:   model.ErrUnauthorised,
		},
		{
			name:      "Order not found",
			principal: &model.Principal{ID: owner},
			missing:   true,
			req:       &model.UpdateOrderRequest{Comment: &comment},
			wantErr:   model.ErrCommandNotFound,
		},
		{
			name:       "Owner edits comment",
			principal:  &model.Principal{ID: owner, Roles: []string{model.RoleUser}},
			req:        &model.UpdateOrderRequest{Comment: &comment},
			wantStatus: model.OrderStatusConfirmed,
		},
		{
			name:      "Items frozen after confirmation",
			principal: &model.Principal{ID: owner},
			req:       &model.UpdateOrderRequest{Items: &items},
			wantErr:   model.ErrImmutableField,
		},
		{
			name:       "Items editable while created",
			principal:  &model.Principal{ID: owner},
			status:     model.OrderStatusCreated,
			req:        &model.UpdateOrderRequest{Items: &items},
			wantStatus: model.OrderStatusCreated,
		},
		{
			name:      "Command type is immutable",
			principal: &model.Principal{ID: owner, Roles: []string{model.RoleAdmin}},
			req:       &model.UpdateOrderRequest{CommandType: &onSite},
			wantErr:   model.ErrImmutableField,
		},
		{
			name:      "Code is immutable",
			principal: &model.Principal{ID: owner, Roles: []string{model.RoleAdmin}},
			req:       &model.UpdateOrderRequest{Code: &code},
			wantErr:   model.ErrImmutableField,
		},
		{
			name:      "Owner cannot change status",
			principal: &model.Principal{ID: owner},
			req:       &model.UpdateOrderRequest{Validated: &yes},
			wantErr:   model.ErrForbidden,
		},
		{
			name:       "Admin validates through patch",
			principal:  &model.Principal{ID: uuid.New(), Roles: []string{model.RoleAdmin}},
			req:        &model.UpdateOrderRequest{Validated: &yes},
			wantStatus: model.OrderStatusValidated,
		},
		{
			name:      "Negative price",
			principal: &model.Principal{ID: owner},
			req:       &model.UpdateOrderRequest{TotalPrice: dec("-3")},
			wantErr:   model.ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			status := tt.status
			if status == "" {
				status = model.OrderStatusConfirmed
			}

			id := uuid.New()
			if !tt.missing {
				f.seed(model.Order{ID: id, Code: 1, CommandType: model.CommandTypeOnSite, Status: status, RelatedUser: &owner})
			}

			order, err := f.svc.UpdateOrder(context.Background(), tt.principal, id, tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, order.Status)

			stored, _ := f.orders.GetByID(context.Background(), id)
			assert.Equal(t, tt.wantStatus, stored.Status)
			if tt.req.Comment != nil {
				assert.Equal(t, comment, stored.Comment)
			}
			if tt.req.Items != nil {
				assert.Equal(t, items, stored.Items)
			}
		})
	}
}

func TestOrderService_ValidateRevokeValidate(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order := f.seed(model.Order{
		Code:        21,
		CommandType: model.CommandTypeDelivery,
		Status:      model.OrderStatusConfirmed,
		Customer:    &model.Customer{PhoneNumber: "+33600000000"},
	})

	_, err := f.svc.ValidateOrder(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.svc.RevokeOrder(ctx, order.ID)
	require.NoError(t, err)
	final, err := f.svc.ValidateOrder(ctx, order.ID)
	require.NoError(t, err)

	confirmed, validated, revoked := final.Status.Flags()
	assert.True(t, confirmed)
	assert.True(t, validated)
	assert.False(t, revoked)

	sent := f.notifier.sent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[1].Text, "revoked")
	assert.Contains(t, sent[2].Text, "validated")
}

func TestOrderService_StatusChanges(t *testing.T) {
	t.Run("Missing order", func(t *testing.T) {
		f := newOrderFixture()
		_, err := f.svc.RevokeOrder(context.Background(), uuid.New())
		assert.ErrorIs(t, err, model.ErrCommandNotFound)
	})

	t.Run("On site orders are not texted", func(t *testing.T) {
		f := newOrderFixture()
		order := f.seed(model.Order{
			CommandType: model.CommandTypeOnSite,
			Status:      model.OrderStatusConfirmed,
			Customer:    &model.Customer{PhoneNumber: "+33600000000"},
		})

		got, err := f.svc.ValidateOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusValidated, got.Status)
		assert.Empty(t, f.notifier.sent())
	})
}

func TestOrderService_DeleteOrders(t *testing.T) {
	f := newOrderFixture()
	a := f.seed(model.Order{Code: 1})
	b := f.seed(model.Order{Code: 2})
	f.seed(model.Order{Code: 3})

	_, err := f.svc.DeleteOrders(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrMissingField)

	deleted, err := f.svc.DeleteOrders(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 1, f.orders.len())
	assert.Empty(t, f.counter.Calls)
}

func TestOrderService_ListOrders_Scope(t *testing.T) {
	ctx := context.Background()
	restaurantIDs := []uuid.UUID{uuid.New()}
	userID := uuid.New()
	adminID := uuid.New()

	tests := []struct {
		name      string
		principal *model.Principal
		setup     func(r *MockRestaurantRepository)
		want      model.OrderFilter
	}{
		{
			name:      "Admin sees everything",
			principal: &model.Principal{ID: adminID, Roles: []string{model.RoleAdmin}},
			want:      model.OrderFilter{Limit: 10},
		},
		{
			name:      "Restaurant admin sees own restaurants",
			principal: &model.Principal{ID: adminID, Roles: []string{model.RoleRestaurantAdmin}},
			setup: func(r *MockRestaurantRepository) {
				r.On("ListIDsByAdmin", mock.Anything, adminID).Return(restaurantIDs, nil)
			},
			want: model.OrderFilter{Limit: 10, Restaurants: restaurantIDs},
		},
		{
			name:      "User sees own orders",
			principal: &model.Principal{ID: userID, Roles: []string{model.RoleUser}},
			want:      model.OrderFilter{Limit: 10, RelatedUser: &userID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderRepository)
			restaurants := new(MockRestaurantRepository)
			if tt.setup != nil {
				tt.setup(restaurants)
			}
			svc := NewOrderService(orders, restaurants, new(MockUserRepository), new(MockCounter), new(MockGate), &recordingNotifier{}, zerolog.Nop())

			orders.On("List", ctx, tt.want).Return([]model.Order{{Code: 1}}, nil)
			orders.On("Count", ctx, tt.want).Return(int64(1), nil)

			resp, err := svc.ListOrders(ctx, tt.principal, model.OrderFilter{Limit: 10})
			require.NoError(t, err)
			assert.Len(t, resp.Data, 1)
			assert.Equal(t, int64(1), resp.Count)

			count, err := svc.CountOrders(ctx, tt.principal, model.OrderFilter{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			orders.AssertExpectations(t)
		})
	}

	t.Run("Anonymous caller", func(t *testing.T) {
		svc := NewOrderService(new(MockOrderRepository), new(MockRestaurantRepository), new(MockUserRepository), new(MockCounter), new(MockGate), &recordingNotifier{}, zerolog.Nop())
		_, err := svc.ListOrders(ctx, nil, model.OrderFilter{})
		assert.ErrorIs(t, err, model.ErrUnauthorised)
	})
}

func TestOrderService_GetOrder(t *testing.T) {
	f := newOrderFixture()
	order := f.seed(model.Order{Code: 4})

	got, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Code)

	missing, err := f.svc.GetOrder(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
