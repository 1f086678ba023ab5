package promo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type catalog struct {
	sets     []CodeSet
	minMatch int
	logger   zerolog.Logger
}

// NewCatalog loads every file concurrently. A code is known when it appears
// in at least minMatch of them.
func NewCatalog(ctx context.Context, files []string, minMatch int, loader Loader, logger zerolog.Logger) (Catalog, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("promo catalog needs at least one file")
	}
	if minMatch < 1 || minMatch > len(files) {
		return nil, fmt.Errorf("promo catalog min match %d out of range [1, %d]", minMatch, len(files))
	}

	logger = logger.With().Str("component", "promo-catalog").Logger()

	sets := make([]CodeSet, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			set, err := loader.Load(gctx, file)
			if err != nil {
				return fmt.Errorf("failed to load code list %s: %w", file, err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range sets {
		total += s.Size()
	}
	logger.Info().Int("files", len(files)).Int("min_match", minMatch).Int("total_codes", total).Msg("promo catalog loaded")

	return &catalog{
		sets:     sets,
		minMatch: minMatch,
		logger:   logger,
	}, nil
}

// Contains stops as soon as the outcome is decided either way.
func (c *catalog) Contains(ctx context.Context, code string) bool {
	matches := 0
	for i, set := range c.sets {
		if ctx.Err() != nil {
			return false
		}
		if set.Contains(code) {
			matches++
			if matches >= c.minMatch {
				return true
			}
		}
		if matches+len(c.sets)-i-1 < c.minMatch {
			return false
		}
	}
	return false
}
