package confirmation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically deletes expired codes from stores that do not expire
// records on their own.
type Sweeper struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewSweeper creates a sweeper removing codes older than ttl every interval.
func NewSweeper(store Store, ttl, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "confirmation_sweeper").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("starting confirmation code sweeper")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-s.stopCh:
				s.logger.Info().Msg("confirmation code sweeper stopped")
				return
			case <-ctx.Done():
				s.logger.Info().Msg("confirmation code sweeper cancelled")
				return
			}
		}
	}()
}

// RunOnce performs a single sweep and returns the number of removed codes.
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	n, err := s.store.PurgeExpired(ctx, s.now().UTC().Add(-s.ttl))
	if err != nil {
		s.logger.Error().Err(err).Msg("expired confirmation codes cleanup failed")
		return 0
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("cleaned up expired confirmation codes")
	}
	return n
}

// Stop ends the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}
