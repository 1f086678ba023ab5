package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BestRestaurant is the restaurant with the most orders in a period.
type BestRestaurant struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int64     `json:"count"`
}

// PeriodStats aggregates orders placed in [From, To).
type PeriodStats struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Count          int64           `json:"count"`
	Revenue        decimal.Decimal `json:"revenue"`
	BestRestaurant *BestRestaurant `json:"bestRestaurant,omitempty"`
}

// Dashboard is the sales summary for the current day, ISO week, month and year.
type Dashboard struct {
	Day   PeriodStats `json:"day"`
	Week  PeriodStats `json:"week"`
	Month PeriodStats `json:"month"`
	Year  PeriodStats `json:"year"`
}

// CounterResponse exposes a sequence counter value.
type CounterResponse struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// PromoCodeRequest is the payload of a promo code usage check.
type PromoCodeRequest struct {
	Max          *int       `json:"max" validate:"required,gte=0"`
	Code         string     `json:"code" validate:"required"`
	DateFin      string     `json:"dateFin"`
	RestaurantID *uuid.UUID `json:"id_restaurant" validate:"required"`
}
