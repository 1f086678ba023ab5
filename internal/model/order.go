package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommandType is the service mode of an order.
type CommandType string

const (
	CommandTypeDelivery CommandType = "delivery"
	CommandTypeOnSite   CommandType = "on_site"
	CommandTypeTakeaway CommandType = "takeaway"
)

// Valid reports whether t is one of the known service modes.
func (t CommandType) Valid() bool {
	switch t {
	case CommandTypeDelivery, CommandTypeOnSite, CommandTypeTakeaway:
		return true
	}
	return false
}

// RequiresContact reports whether orders of this type must reach the customer by phone.
func (t CommandType) RequiresContact() bool {
	return t == CommandTypeDelivery || t == CommandTypeTakeaway
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusValidated OrderStatus = "validated"
	OrderStatusRevoked   OrderStatus = "revoked"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusConfirmed, OrderStatusValidated, OrderStatusRevoked:
		return true
	}
	return false
}

// Flags expands the status into the legacy confirmed/validated/revoked booleans.
func (s OrderStatus) Flags() (confirmed, validated, revoked bool) {
	switch s {
	case OrderStatusConfirmed:
		return true, false, false
	case OrderStatusValidated:
		return true, true, false
	case OrderStatusRevoked:
		return true, false, true
	}
	return false, false, false
}

// StatusFromFlags folds legacy booleans into a status. Validated wins over revoked.
func StatusFromFlags(confirmed, validated, revoked bool) OrderStatus {
	switch {
	case validated:
		return OrderStatusValidated
	case revoked:
		return OrderStatusRevoked
	case confirmed:
		return OrderStatusConfirmed
	}
	return OrderStatusCreated
}

// Customer is the inline contact snapshot of an anonymous customer.
type Customer struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// LineItem is a food entry of an order.
type LineItem struct {
	Quantity int             `json:"quantity" validate:"gte=1"`
	Item     string          `json:"item" validate:"required"`
	Comment  string          `json:"comment,omitempty"`
	Options  json.RawMessage `json:"options,omitempty"`
}

// MenuLine is a menu entry of an order with the foods picked for it.
type MenuLine struct {
	Quantity int             `json:"quantity" validate:"gte=1"`
	Item     string          `json:"item" validate:"required"`
	Foods    json.RawMessage `json:"foods,omitempty"`
	Comment  string          `json:"comment,omitempty"`
}

// Price is an amount in a given currency.
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,oneof=eur usd"`
}

// PickupTime is the takeaway pick-up slot.
type PickupTime struct {
	Day    string `json:"day,omitempty"`
	Hour   int    `json:"hour" validate:"gte=0,lte=23"`
	Minute int    `json:"minute" validate:"gte=0,lte=59"`
}

// Payment is the payment status attached to an order.
type Payment struct {
	Status          bool   `json:"status"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	PaymentChargeID string `json:"paymentChargeId,omitempty"`
}

// PromoSnapshot is the promo code as it was when the order was placed.
type PromoSnapshot struct {
	Code            string          `json:"code"`
	Value           decimal.Decimal `json:"value"`
	DiscountIsPrice bool            `json:"discountIsPrice"`
	Nbr             int             `json:"nbr,omitempty"`
	Date            *time.Time      `json:"date,omitempty"`
}

// Fulfilment groups the delivery and pick-up details of an order.
type Fulfilment struct {
	ShippingAddress      string      `json:"shippingAddress,omitempty"`
	ShippingTime         *int64      `json:"shippingTime,omitempty"`
	ShipAsSoonAsPossible bool        `json:"shipAsSoonAsPossible"`
	OptionLivraison      string      `json:"optionLivraison,omitempty" validate:"omitempty,oneof=behind_the_door on_the_door out"`
	Etage                *int        `json:"etage,omitempty"`
	Appartement          string      `json:"appartement,omitempty"`
	CodeAppartement      string      `json:"codeAppartement,omitempty"`
	DateTimeRetrait      *PickupTime `json:"dateTimeRetrait,omitempty" validate:"omitempty"`
	PaiementLivraison    bool        `json:"paiementLivraison"`
}

// Order represents a customer order ("command").
type Order struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	Code                 int64           `json:"code" db:"code"`
	CommandType          CommandType     `json:"commandType" db:"command_type"`
	Status               OrderStatus     `json:"status" db:"status"`
	Restaurant           *uuid.UUID      `json:"restaurant,omitempty" db:"restaurant_id"`
	RelatedUser          *uuid.UUID      `json:"relatedUser,omitempty" db:"related_user_id"`
	Customer             *Customer       `json:"customer,omitempty" db:"customer"`
	Items                []LineItem      `json:"items" db:"items"`
	Menus                []MenuLine      `json:"menus" db:"menus"`
	TotalPrice           decimal.Decimal `json:"totalPrice" db:"total_price"`
	TotalPriceSansRemise decimal.Decimal `json:"totalPriceSansRemise" db:"total_price_sans_remise"`
	DiscountPrice        decimal.Decimal `json:"discountPrice" db:"discount_price"`
	DeliveryPrice        *Price          `json:"deliveryPrice,omitempty" db:"delivery_price"`
	Priceless            bool            `json:"priceless" db:"priceless"`
	Fulfilment           Fulfilment      `json:"-" db:"fulfilment"`
	Comment              string          `json:"comment,omitempty" db:"comment"`
	Payed                Payment         `json:"payed" db:"payed"`
	CodePromo            *PromoSnapshot  `json:"codePromo,omitempty" db:"code_promo"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsCodePromo reports whether a promo code was applied.
func (o *Order) IsCodePromo() bool {
	return o.CodePromo != nil
}

// ContactPhone returns the customer snapshot phone, if any.
func (o *Order) ContactPhone() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.PhoneNumber
}

// MarshalJSON flattens fulfilment details and exposes the legacy status booleans.
func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	confirmed, validated, revoked := o.Status.Flags()
	return json.Marshal(struct {
		order
		Fulfilment
		Confirmed   bool `json:"confirmed"`
		Validated   bool `json:"validated"`
		Revoked     bool `json:"revoked"`
		IsCodePromo bool `json:"isCodePromo"`
	}{
		order:       order(o),
		Fulfilment:  o.Fulfilment,
		Confirmed:   confirmed,
		Validated:   validated,
		Revoked:     revoked,
		IsCodePromo: o.IsCodePromo(),
	})
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	CommandType          CommandType      `json:"commandType"`
	Restaurant           *uuid.UUID       `json:"restaurant,omitempty"`
	RelatedUser          *uuid.UUID       `json:"relatedUser,omitempty"`
	Customer             *Customer        `json:"customer,omitempty"`
	Items                []LineItem       `json:"items" validate:"dive"`
	Menus                []MenuLine       `json:"menus" validate:"dive"`
	TotalPrice           *decimal.Decimal `json:"totalPrice"`
	TotalPriceSansRemise *decimal.Decimal `json:"totalPriceSansRemise,omitempty"`
	DiscountPrice        *decimal.Decimal `json:"discountPrice,omitempty"`
	DeliveryPrice        *Price           `json:"deliveryPrice,omitempty" validate:"omitempty"`
	Priceless            bool             `json:"priceless"`
	Comment              string           `json:"comment,omitempty"`
	Payed                *Payment         `json:"payed,omitempty"`
	CodePromo            *PromoSnapshot   `json:"codePromo,omitempty"`
	AwaitConfirmation    bool             `json:"awaitConfirmation"`
	Fulfilment
}

// UpdateOrderRequest is a partial update. Nil fields are left untouched.
type UpdateOrderRequest struct {
	Customer             *Customer        `json:"customer,omitempty"`
	Items                *[]LineItem      `json:"items,omitempty" validate:"omitempty,dive"`
	Menus                *[]MenuLine      `json:"menus,omitempty" validate:"omitempty,dive"`
	TotalPrice           *decimal.Decimal `json:"totalPrice,omitempty"`
	TotalPriceSansRemise *decimal.Decimal `json:"totalPriceSansRemise,omitempty"`
	DiscountPrice        *decimal.Decimal `json:"discountPrice,omitempty"`
	DeliveryPrice        *Price           `json:"deliveryPrice,omitempty" validate:"omitempty"`
	Priceless            *bool            `json:"priceless,omitempty"`
	Comment              *string          `json:"comment,omitempty"`
	Payed                *Payment         `json:"payed,omitempty"`
	ShippingAddress      *string          `json:"shippingAddress,omitempty"`
	ShippingTime         *int64           `json:"shippingTime,omitempty"`
	ShipAsSoonAsPossible *bool            `json:"shipAsSoonAsPossible,omitempty"`
	OptionLivraison      *string          `json:"optionLivraison,omitempty" validate:"omitempty,oneof=behind_the_door on_the_door out"`
	Etage                *int             `json:"etage,omitempty"`
	Appartement          *string          `json:"appartement,omitempty"`
	CodeAppartement      *string          `json:"codeAppartement,omitempty"`
	DateTimeRetrait      *PickupTime      `json:"dateTimeRetrait,omitempty" validate:"omitempty"`
	PaiementLivraison    *bool            `json:"paiementLivraison,omitempty"`
	Confirmed            *bool            `json:"confirmed,omitempty"`
	Validated            *bool            `json:"validated,omitempty"`
	Revoked              *bool            `json:"revoked,omitempty"`

	// Rejected when present; kept so the decoder can detect them.
	CommandType *string `json:"commandType,omitempty"`
	Code        *int64  `json:"code,omitempty"`
}

// TouchesStatus reports whether the patch changes lifecycle flags.
func (r *UpdateOrderRequest) TouchesStatus() bool {
	return r.Confirmed != nil || r.Validated != nil || r.Revoked != nil
}

// SendCodeRequest asks for a phone confirmation code before ordering.
type SendCodeRequest struct {
	CommandType CommandType `json:"commandType"`
	RelatedUser *uuid.UUID  `json:"relatedUser,omitempty"`
	Customer    *Customer   `json:"customer,omitempty"`
	Command     *uuid.UUID  `json:"command,omitempty"`
}

// SendCodeResponse is returned once a code has been issued.
type SendCodeResponse struct {
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ConfirmCodeRequest submits a code received by phone.
type ConfirmCodeRequest struct {
	Code    string     `json:"code"`
	Token   string     `json:"token"`
	Command *uuid.UUID `json:"command,omitempty"`
}

// ConfirmCodeResponse reports a successful confirmation.
type ConfirmCodeResponse struct {
	Message string `json:"message"`
	Command *Order `json:"command,omitempty"`
}

// DeleteOrdersRequest is the bulk delete payload.
type DeleteOrdersRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// DeleteOrdersResponse reports how many orders were removed.
type DeleteOrdersResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// OrderFilter narrows list and count queries.
type OrderFilter struct {
	CommandType  CommandType
	RestaurantID *uuid.UUID
	Restaurants  []uuid.UUID
	RelatedUser  *uuid.UUID
	Start        *time.Time
	End          *time.Time
	Limit        int
	Offset       int
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Data  []Order `json:"data"`
	Count int64   `json:"count"`
}
