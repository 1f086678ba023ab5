package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type guard struct {
	store   UsageStore
	catalog Catalog
	now     func() time.Time
	logger  zerolog.Logger
}

// NewGuard creates a Guard. catalog may be nil, in which case any code is accepted.
func NewGuard(store UsageStore, catalog Catalog, logger zerolog.Logger) Guard {
	return &guard{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		logger:  logger.With().Str("component", "promo-guard").Logger(),
	}
}

func (g *guard) CheckAndRecord(ctx context.Context, usage Usage, maxUses int) (bool, error) {
	if g.catalog != nil && !g.catalog.Contains(ctx, usage.Code) {
		g.logger.Debug().Str("code", usage.Code).Msg("promo code not in catalog")
		return false, ErrUnknownCode
	}

	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = g.now().UTC()
	}

	allowed, err := g.store.CheckAndRecord(ctx, usage, maxUses)
	if err != nil {
		g.logger.Error().Err(err).Str("code", usage.Code).Msg("failed to record promo usage")
		return false, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	g.logger.Debug().
		Str("code", usage.Code).
		Str("restaurant", usage.RestaurantID).
		Int("max", maxUses).
		Bool("allowed", allowed).
		Msg("promo usage checked")

	return allowed, nil
}
