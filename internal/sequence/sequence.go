// Package sequence provides persistent named counters used for order numbers
// and catalog display priorities.
package sequence

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorage is returned when the backing store cannot be reached or fails.
// Callers must abort the operation that needed the value.
var ErrStorage = errors.New("sequence storage failure")

// Well-known counter names.
const (
	Command               = "command"
	FoodPriority          = "foodPriority"
	MenuPriority          = "menuPriority"
	AccompanimentPriority = "accompanimentPriority"
	FoodCategoryPriority  = "foodCategoryPriority"
	FoodTypePriority      = "foodTypePriority"
	FoodAttributePriority = "foodAttributePriority"
	MenuTitlePriority     = "menuTitlePriority"
)

// Names lists the counters the platform knows about.
var Names = []string{
	Command,
	FoodPriority,
	MenuPriority,
	AccompanimentPriority,
	FoodCategoryPriority,
	FoodTypePriority,
	FoodAttributePriority,
	MenuTitlePriority,
}

// Counter is a set of named monotonic counters. Every method creates the
// counter at 1 when it does not exist yet, except Reset and Set which force a value.
type Counter interface {
	// Next increments the counter and returns the new value.
	Next(ctx context.Context, name string) (int64, error)

	// Current returns the stored value.
	Current(ctx context.Context, name string) (int64, error)

	// Decrement subtracts one and returns the new value.
	Decrement(ctx context.Context, name string) (int64, error)

	// Reset sets the counter to 0 so that the following Next returns 1.
	Reset(ctx context.Context, name string) (int64, error)

	// Set forces an explicit value.
	Set(ctx context.Context, name string, value int64) (int64, error)
}

// ReleasePriority gives back the display priority of a deleted catalog entity.
// The counter is reset once the collection is empty, otherwise it is decremented
// when the deleted entity held the highest priority.
func ReleasePriority(ctx context.Context, c Counter, name string, priority, remaining int64) error {
	if remaining == 0 {
		_, err := c.Reset(ctx, name)
		return err
	}

	current, err := c.Current(ctx, name)
	if err != nil {
		return err
	}

	if priority == current {
		_, err = c.Decrement(ctx, name)
	}
	return err
}

func storageErr(op, name string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrStorage, op, name, err)
}
