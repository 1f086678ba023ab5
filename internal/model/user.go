package model

import (
	"slices"

	"github.com/google/uuid"
)

// Roles granted by the platform.
const (
	RoleUser            = "ROLE_USER"
	RoleAdmin           = "ROLE_ADMIN"
	RoleRestaurantAdmin = "ROLE_RESTAURANT_ADMIN"
)

// User is a registered account.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
	Roles       []string  `json:"roles" db:"roles"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    uuid.UUID
	Roles []string
}

// HasRole reports whether the principal holds any of the given roles.
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal is a platform administrator.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}
