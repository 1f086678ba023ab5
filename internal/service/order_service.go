package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"menu-advisor/internal/confirmation"
	"menu-advisor/internal/model"
	"menu-advisor/internal/notification"
	"menu-advisor/internal/repository"
	"menu-advisor/internal/sequence"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo      repository.OrderRepository
	restaurantRepo repository.RestaurantRepository
	userRepo       repository.UserRepository
	counter        sequence.Counter
	gate           confirmation.Gate
	notifier       Notifier
	now            func() time.Time
	logger         zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
	userRepo repository.UserRepository,
	counter sequence.Counter,
	gate confirmation.Gate,
	notifier Notifier,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		userRepo:       userRepo,
		counter:        counter,
		gate:           gate,
		notifier:       notifier,
		now:            time.Now,
		logger:         logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder runs every validation before claiming an order number so that
// rejected requests never consume one.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	var restaurant *model.Restaurant
	if req.Restaurant != nil {
		r, err := s.restaurantRepo.GetByID(ctx, *req.Restaurant)
		if err != nil {
			return nil, fmt.Errorf("failed to load restaurant: %w", err)
		}
		if r == nil {
			s.logger.Warn().Str("restaurant_id", req.Restaurant.String()).Msg("order for unknown restaurant")
			return nil, model.ErrRestaurantNotFound
		}
		if !r.Supports(req.CommandType) {
			s.logger.Warn().
				Str("restaurant_id", r.ID.String()).
				Str("command_type", string(req.CommandType)).
				Msg("restaurant does not support command type")
			return nil, model.ErrUnsupportedCommandType
		}
		restaurant = r
	}

	if req.CommandType.RequiresContact() {
		phone, err := s.contactPhone(ctx, req.RelatedUser, req.Customer)
		if err != nil {
			return nil, err
		}
		if phone == "" {
			return nil, model.ErrNoContactPhone
		}
	}

	code, err := s.counter.Next(ctx, sequence.Command)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to claim order number")
		return nil, fmt.Errorf("failed to claim order number: %w", err)
	}

	// The number is claimed: finish even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	now := s.now()
	order := &model.Order{
		ID:                   uuid.New(),
		Code:                 code,
		CommandType:          req.CommandType,
		Status:               model.OrderStatusConfirmed,
		Restaurant:           req.Restaurant,
		RelatedUser:          req.RelatedUser,
		Customer:             req.Customer,
		Items:                req.Items,
		Menus:                req.Menus,
		TotalPrice:           *req.TotalPrice,
		TotalPriceSansRemise: valueOrZero(req.TotalPriceSansRemise),
		DiscountPrice:        valueOrZero(req.DiscountPrice),
		DeliveryPrice:        req.DeliveryPrice,
		Priceless:            req.Priceless,
		Fulfilment:           req.Fulfilment,
		Comment:              req.Comment,
		CodePromo:            req.CodePromo,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.AwaitConfirmation {
		order.Status = model.OrderStatusCreated
	}
	if req.Payed != nil {
		order.Payed = *req.Payed
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Int64("code", code).Msg("failed to store order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if subject := confirmationSubject(req.RelatedUser, req.Customer); subject != "" {
		if err := s.gate.Purge(ctx, subject, confirmation.TypeNewCommand); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to purge pending confirmation codes")
		}
	}

	if restaurant != nil && order.CommandType.RequiresContact() && restaurant.PhoneNumber != "" {
		s.notifier.Notify(notification.Message{
			To:   restaurant.PhoneNumber,
			Text: fmt.Sprintf("New %s order #%d received", commandTypeLabel(order.CommandType), order.Code),
		})
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int64("code", order.Code).
		Str("command_type", string(order.CommandType)).
		Str("status", string(order.Status)).
		Msg("order created successfully")

	return order, nil
}

// SendConfirmationCode issues a new-command code for the customer.
func (s *orderService) SendConfirmationCode(ctx context.Context, req *model.SendCodeRequest) (*model.SendCodeResponse, error) {
	if req.CommandType != "" && !req.CommandType.Valid() {
		return nil, model.ErrInvalidCommandType
	}

	phone, err := s.contactPhone(ctx, req.RelatedUser, req.Customer)
	if err != nil {
		return nil, err
	}
	if phone == "" && (req.CommandType.RequiresContact() || req.CommandType == "") {
		return nil, model.ErrNoContactPhone
	}

	subject := confirmationSubject(req.RelatedUser, req.Customer)
	if subject == "" {
		return nil, model.ErrNoContactPhone
	}

	payload := ""
	if req.Command != nil {
		order, err := s.orderRepo.GetByID(ctx, *req.Command)
		if err != nil {
			return nil, fmt.Errorf("failed to load order: %w", err)
		}
		if order == nil {
			return nil, model.ErrCommandNotFound
		}
		if confirmationSubject(order.RelatedUser, order.Customer) != subject {
			s.logger.Warn().Str("order_id", order.ID.String()).Msg("code requested for an order owned by another customer")
			return nil, model.ErrInvalidConfirmationCode
		}
		payload = order.ID.String()
	}

	challenge, err := s.gate.Issue(ctx, subject, confirmation.TypeNewCommand, payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue confirmation code")
		return nil, fmt.Errorf("failed to issue confirmation code: %w", err)
	}

	if phone != "" {
		s.notifier.Notify(notification.Message{
			To:   phone,
			Text: fmt.Sprintf("Your order confirmation code is %s", challenge.Code),
		})
	}

	s.logger.Info().Str("type", string(confirmation.TypeNewCommand)).Msg("confirmation code sent")

	return &model.SendCodeResponse{
		Message:   "Code sent",
		Code:      challenge.Code,
		Token:     challenge.Token,
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// ConfirmCode redeems a code. The order named by the challenge wins over the
// one named in the request; the two must agree when both are present.
func (s *orderService) ConfirmCode(ctx context.Context, req *model.ConfirmCodeRequest) (*model.ConfirmCodeResponse, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Token) == "" {
		return nil, model.ErrMissingConfirmationCode
	}

	rec, err := s.gate.VerifyToken(ctx, req.Token, strings.TrimSpace(req.Code))
	if err != nil {
		if errors.Is(err, confirmation.ErrInvalidCode) {
			return nil, model.ErrInvalidConfirmationCode
		}
		return nil, fmt.Errorf("failed to verify confirmation code: %w", err)
	}

	orderID, err := challengeOrder(rec.Payload, req.Command)
	if err != nil {
		return nil, err
	}
	if orderID == nil {
		return &model.ConfirmCodeResponse{Message: "Code confirmed"}, nil
	}

	ctx = context.WithoutCancel(ctx)

	order, err := s.orderRepo.GetByID(ctx, *orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, model.ErrCommandNotFound
	}

	// A code only confirms orders placed by the subject it was issued to.
	if confirmationSubject(order.RelatedUser, order.Customer) != rec.Subject {
		s.logger.Warn().Str("order_id", order.ID.String()).Msg("confirmation code redeemed for another customer's order")
		return nil, model.ErrInvalidConfirmationCode
	}

	if order.Status == model.OrderStatusCreated {
		confirmed, err := s.orderRepo.UpdateStatusFrom(ctx, order.ID, model.OrderStatusCreated, model.OrderStatusConfirmed)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm order: %w", err)
		}

		if confirmed == nil {
			// Validated, revoked or deleted since it was read.
			order, err = s.orderRepo.GetByID(ctx, order.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load order: %w", err)
			}
			if order == nil {
				return nil, model.ErrCommandNotFound
			}
		} else {
			order = confirmed
			s.notifyCustomer(ctx, order, fmt.Sprintf("Your order #%d is confirmed", order.Code))
			s.logger.Info().Str("order_id", order.ID.String()).Int64("code", order.Code).Msg("order confirmed")
		}
	}

	return &model.ConfirmCodeResponse{Message: "Code confirmed", Command: order}, nil
}

// UpdateOrder applies a patch. Owners may edit their own orders; admins may edit
// any order including its lifecycle flags.
func (s *orderService) UpdateOrder(ctx context.Context, principal *model.Principal, id uuid.UUID, req *model.UpdateOrderRequest) (*model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}

	if req.CommandType != nil {
		return nil, model.ErrImmutableField.WithDetails(map[string]string{"commandType": "immutable"})
	}
	if req.Code != nil {
		return nil, model.ErrImmutableField.WithDetails(map[string]string{"code": "immutable"})
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if isNegative(req.TotalPrice) || isNegative(req.TotalPriceSansRemise) || isNegative(req.DiscountPrice) {
		return nil, model.ErrInvalidPrice
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, model.ErrCommandNotFound
	}

	admin := principal.IsAdmin()
	owner := order.RelatedUser != nil && *order.RelatedUser == principal.ID
	if !admin && !owner {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("principal", principal.ID.String()).
			Msg("update of foreign order rejected")
		return nil, model.ErrUnauthorised
	}

	if req.TouchesStatus() && !admin {
		return nil, model.ErrForbidden
	}
	if (req.Items != nil || req.Menus != nil) && order.Status != model.OrderStatusCreated {
		return nil, model.ErrImmutableField
	}

	applyPatch(order, req)
	order.UpdatedAt = s.now()

	ok, err := s.orderRepo.Update(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if !ok {
		return nil, model.ErrCommandNotFound
	}

	s.logger.Info().Str("order_id", id.String()).Str("status", string(order.Status)).Msg("order updated")
	return order, nil
}

func (s *orderService) ValidateOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, id, model.OrderStatusValidated, "Your order #%d has been validated")
}

func (s *orderService) RevokeOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, id, model.OrderStatusRevoked, "Your order #%d has been revoked")
}

func (s *orderService) transition(ctx context.Context, id uuid.UUID, status model.OrderStatus, text string) (*model.Order, error) {
	order, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Str("status", string(status)).Msg("failed to change order status")
		return nil, fmt.Errorf("failed to change order status: %w", err)
	}
	if order == nil {
		return nil, model.ErrCommandNotFound
	}

	if order.CommandType.RequiresContact() {
		s.notifyCustomer(context.WithoutCancel(ctx), order, fmt.Sprintf(text, order.Code))
	}

	s.logger.Info().Str("order_id", id.String()).Str("status", string(status)).Msg("order status changed")
	return order, nil
}

func (s *orderService) DeleteOrders(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, model.ErrMissingField.WithDetails(map[string]string{"ids": "required"})
	}

	deleted, err := s.orderRepo.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}

	s.logger.Info().Int("requested", len(ids)).Int64("deleted", deleted).Msg("orders deleted")
	return deleted, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (*model.OrderListResponse, error) {
	filter, err := s.scope(ctx, principal, filter)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	count, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	return &model.OrderListResponse{Data: orders, Count: count}, nil
}

func (s *orderService) CountOrders(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (int64, error) {
	filter, err := s.scope(ctx, principal, filter)
	if err != nil {
		return 0, err
	}

	count, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// scope restricts a filter to what principal may read: admins see everything,
// restaurant admins their restaurants, other users their own orders.
func (s *orderService) scope(ctx context.Context, principal *model.Principal, filter model.OrderFilter) (model.OrderFilter, error) {
	switch {
	case principal == nil:
		return filter, model.ErrUnauthorised
	case principal.IsAdmin():
	case principal.HasRole(model.RoleRestaurantAdmin):
		ids, err := s.restaurantRepo.ListIDsByAdmin(ctx, principal.ID)
		if err != nil {
			return filter, fmt.Errorf("failed to load administered restaurants: %w", err)
		}
		filter.Restaurants = ids
	default:
		filter.RelatedUser = &principal.ID
	}
	return filter, nil
}

func (s *orderService) validateCreateRequest(req *model.CreateOrderRequest) error {
	if req.CommandType == "" || !req.CommandType.Valid() {
		return model.ErrInvalidCommandType
	}
	if req.TotalPrice == nil {
		return model.ErrMissingField.WithDetails(map[string]string{"totalPrice": "required"})
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.TotalPrice.IsNegative() || isNegative(req.TotalPriceSansRemise) || isNegative(req.DiscountPrice) {
		return model.ErrInvalidPrice
	}
	if req.CommandType == model.CommandTypeDelivery {
		if strings.TrimSpace(req.ShippingAddress) == "" || (req.ShippingTime == nil && !req.ShipAsSoonAsPossible) {
			return model.ErrShippingDetails
		}
	}
	return nil
}

// contactPhone resolves the phone of a registered user, falling back to the
// customer snapshot.
func (s *orderService) contactPhone(ctx context.Context, relatedUser *uuid.UUID, customer *model.Customer) (string, error) {
	if relatedUser != nil {
		user, err := s.userRepo.GetByID(ctx, *relatedUser)
		if err != nil {
			return "", fmt.Errorf("failed to load related user: %w", err)
		}
		if user != nil && user.PhoneNumber != "" {
			return user.PhoneNumber, nil
		}
	}
	if customer != nil {
		return strings.TrimSpace(customer.PhoneNumber), nil
	}
	return "", nil
}

func (s *orderService) notifyCustomer(ctx context.Context, order *model.Order, text string) {
	phone, err := s.contactPhone(ctx, order.RelatedUser, order.Customer)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("cannot resolve customer phone")
		return
	}
	if phone == "" {
		return
	}
	s.notifier.Notify(notification.Message{To: phone, Text: text})
}

// confirmationSubject identifies who a code belongs to: the registered user
// when known, otherwise the customer phone.
func confirmationSubject(relatedUser *uuid.UUID, customer *model.Customer) string {
	if relatedUser != nil {
		return relatedUser.String()
	}
	if customer != nil {
		return strings.TrimSpace(customer.PhoneNumber)
	}
	return ""
}

func challengeOrder(payload string, requested *uuid.UUID) (*uuid.UUID, error) {
	if payload == "" {
		return requested, nil
	}

	id, err := uuid.Parse(payload)
	if err != nil {
		return nil, model.ErrInvalidConfirmationCode
	}
	if requested != nil && *requested != id {
		return nil, model.ErrInvalidConfirmationCode
	}
	return &id, nil
}

func applyPatch(o *model.Order, p *model.UpdateOrderRequest) {
	if p.Customer != nil {
		o.Customer = p.Customer
	}
	if p.Items != nil {
		o.Items = *p.Items
	}
	if p.Menus != nil {
		o.Menus = *p.Menus
	}
	if p.TotalPrice != nil {
		o.TotalPrice = *p.TotalPrice
	}
	if p.TotalPriceSansRemise != nil {
		o.TotalPriceSansRemise = *p.TotalPriceSansRemise
	}
	if p.DiscountPrice != nil {
		o.DiscountPrice = *p.DiscountPrice
	}
	if p.DeliveryPrice != nil {
		o.DeliveryPrice = p.DeliveryPrice
	}
	if p.Priceless != nil {
		o.Priceless = *p.Priceless
	}
	if p.Comment != nil {
		o.Comment = *p.Comment
	}
	if p.Payed != nil {
		o.Payed = *p.Payed
	}

	f := &o.Fulfilment
	if p.ShippingAddress != nil {
		f.ShippingAddress = *p.ShippingAddress
	}
	if p.ShippingTime != nil {
		f.ShippingTime = p.ShippingTime
	}
	if p.ShipAsSoonAsPossible != nil {
		f.ShipAsSoonAsPossible = *p.ShipAsSoonAsPossible
	}
	if p.OptionLivraison != nil {
		f.OptionLivraison = *p.OptionLivraison
	}
	if p.Etage != nil {
		f.Etage = p.Etage
	}
	if p.Appartement != nil {
		f.Appartement = *p.Appartement
	}
	if p.CodeAppartement != nil {
		f.CodeAppartement = *p.CodeAppartement
	}
	if p.DateTimeRetrait != nil {
		f.DateTimeRetrait = p.DateTimeRetrait
	}
	if p.PaiementLivraison != nil {
		f.PaiementLivraison = *p.PaiementLivraison
	}

	if p.TouchesStatus() {
		confirmed, validated, revoked := o.Status.Flags()
		if p.Confirmed != nil {
			confirmed = *p.Confirmed
		}
		if p.Validated != nil {
			validated = *p.Validated
		}
		if p.Revoked != nil {
			revoked = *p.Revoked
		}
		o.Status = model.StatusFromFlags(confirmed, validated, revoked)
	}
}

func commandTypeLabel(t model.CommandType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}
