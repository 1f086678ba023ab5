package model

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant holds the fields of a restaurant the order flow relies on.
type Restaurant struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	PhoneNumber string     `json:"phoneNumber" db:"phone_number"`
	Delivery    bool       `json:"delivery" db:"delivery"`
	SurPlace    bool       `json:"surPlace" db:"sur_place"`
	AEmporter   bool       `json:"aEmporter" db:"a_emporter"`
	Admin       *uuid.UUID `json:"admin,omitempty" db:"admin_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// Supports reports whether the restaurant accepts orders of the given type.
func (r *Restaurant) Supports(t CommandType) bool {
	switch t {
	case CommandTypeDelivery:
		return r.Delivery
	case CommandTypeOnSite:
		return r.SurPlace
	case CommandTypeTakeaway:
		return r.AEmporter
	}
	return false
}
