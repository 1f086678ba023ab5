// Package promo limits how often a promo code may be used and optionally
// checks codes against published code lists.
package promo

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownCode is returned when a catalog is configured and the code is not in it.
	ErrUnknownCode = errors.New("unknown promo code")

	// ErrStorage is returned when the usage store fails.
	ErrStorage = errors.New("promo usage storage failure")
)

// Usage is one recorded use of a promo code by a client at a restaurant.
type Usage struct {
	Code          string
	ClientAddress string
	RestaurantID  string
	Expiry        string
	CreatedAt     time.Time
}

// Key identifies the usage quota the record counts against.
func (u Usage) Key() string {
	return u.Code + "|" + u.ClientAddress + "|" + u.RestaurantID
}

// Guard decides whether a promo code may be used once more.
type Guard interface {
	// CheckAndRecord records the usage and returns true, or returns false
	// without recording when more than maxUses usages already exist.
	CheckAndRecord(ctx context.Context, usage Usage, maxUses int) (bool, error)
}

// UsageStore persists usages. CheckAndRecord must be atomic per Usage.Key.
type UsageStore interface {
	CheckAndRecord(ctx context.Context, usage Usage, maxUses int) (bool, error)
}

// CodeSet is a set of promo codes for fast lookup.
type CodeSet interface {
	// Contains checks if a code exists in the set.
	Contains(code string) bool

	// Size returns the number of codes in the set.
	Size() int
}

// Loader reads a gzipped code list.
type Loader interface {
	Load(ctx context.Context, path string) (CodeSet, error)
}

// Catalog tells whether a code has been published.
type Catalog interface {
	Contains(ctx context.Context, code string) bool
}
