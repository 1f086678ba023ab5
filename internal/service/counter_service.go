package service

import (
	"context"
	"fmt"
	"slices"

	"menu-advisor/internal/model"
	"menu-advisor/internal/sequence"

	"github.com/rs/zerolog"
)

type counterService struct {
	counter sequence.Counter
	logger  zerolog.Logger
}

// NewCounterService exposes the well-known counters of sequence.Names.
func NewCounterService(counter sequence.Counter, logger zerolog.Logger) CounterService {
	return &counterService{
		counter: counter,
		logger:  logger.With().Str("service", "counter").Logger(),
	}
}

func (s *counterService) Current(ctx context.Context, name string) (*model.CounterResponse, error) {
	return s.apply(ctx, name, "read", s.counter.Current)
}

func (s *counterService) Decrement(ctx context.Context, name string) (*model.CounterResponse, error) {
	return s.apply(ctx, name, "decrement", s.counter.Decrement)
}

func (s *counterService) Reset(ctx context.Context, name string) (*model.CounterResponse, error) {
	return s.apply(ctx, name, "reset", s.counter.Reset)
}

func (s *counterService) apply(ctx context.Context, name, op string, fn func(context.Context, string) (int64, error)) (*model.CounterResponse, error) {
	if !slices.Contains(sequence.Names, name) {
		return nil, model.ErrUnknownCounter
	}

	value, err := fn(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to %s counter: %w", op, err)
	}

	if op != "read" {
		s.logger.Info().Str("counter", name).Int64("value", value).Msgf("counter %s", op)
	}

	return &model.CounterResponse{Name: name, Value: value}, nil
}
