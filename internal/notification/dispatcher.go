package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets how many messages are sent concurrently.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets how many messages may wait for a worker before new ones
// are dropped.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// Dispatcher sends messages in the background so callers never wait on, or
// fail because of, the delivery channel. Messages go through a bounded queue
// drained by a fixed set of workers.
type Dispatcher struct {
	notifier  Notifier
	sender    string
	timeout   time.Duration
	workers   int
	queueSize int
	logger    zerolog.Logger

	queue  chan Message
	base   context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its workers. sender fills
// Message.Sender when empty.
func NewDispatcher(notifier Notifier, sender string, timeout time.Duration, logger zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifier:  notifier,
		sender:    sender,
		timeout:   timeout,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.queue = make(chan Message, d.queueSize)
	d.base, d.cancel = context.WithCancel(context.Background())

	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.work()
	}

	d.logger.Info().
		Int("workers", d.workers).
		Int("queue_size", d.queueSize).
		Msg("notification dispatcher started")

	return d
}

// Notify queues msg for delivery and returns immediately. Delivery errors are
// logged. Messages are dropped when the queue is full or after Close.
func (d *Dispatcher) Notify(msg Message) {
	if msg.Sender == "" {
		msg.Sender = d.sender
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn().Str("to", maskPhone(msg.To)).Msg("dispatcher closed, notification dropped")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.logger.Error().Str("to", maskPhone(msg.To)).Msg("notification queue full, notification dropped")
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for msg := range d.queue {
		if d.base.Err() != nil {
			d.logger.Warn().Str("to", maskPhone(msg.To)).Msg("shutdown deadline passed, notification dropped")
			continue
		}
		d.send(msg)
	}
}

func (d *Dispatcher) send(msg Message) {
	ctx, cancel := context.WithTimeout(d.base, d.timeout)
	defer cancel()

	if err := d.notifier.Send(ctx, msg); err != nil {
		d.logger.Error().Err(err).Str("to", maskPhone(msg.To)).Msg("failed to send notification")
	}
}

// Close stops accepting messages and lets the workers drain the queue. When
// ctx is done first, in-flight sends are cancelled and the rest of the queue is
// dropped. The notifier is closed only once every worker has returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn().Int("queued", len(d.queue)).Msg("timed out draining notifications, cancelling the rest")
		d.cancel()
		<-done
		err = ctx.Err()
	}
	d.cancel()

	return errors.Join(err, d.notifier.Close())
}
