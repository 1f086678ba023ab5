package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"menu-advisor/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher is the part of amqp.Channel used by the notifier.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitNotifier struct {
	conn       *amqp.Connection
	ch         Publisher
	exchange   string
	routingKey string
	mu         sync.Mutex
	logger     zerolog.Logger
}

// DialRabbitMQ connects to the broker and declares the durable topic exchange.
func DialRabbitMQ(_ context.Context, cfg config.RabbitMQConfig, logger zerolog.Logger) (Notifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	n := NewRabbitMQNotifierWithPublisher(ch, cfg.Exchange, cfg.RoutingKey, logger).(*rabbitNotifier)
	n.conn = conn
	return n, nil
}

// NewRabbitMQNotifierWithPublisher wraps an existing channel.
func NewRabbitMQNotifierWithPublisher(p Publisher, exchange, routingKey string, logger zerolog.Logger) Notifier {
	return &rabbitNotifier{
		ch:         p,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger.With().Str("component", "notifier").Str("backend", "rabbitmq").Logger(),
	}
}

func (n *rabbitNotifier) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ch.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish notification to rabbitmq: %w", err)
	}

	n.logger.Debug().Str("to", maskPhone(msg.To)).Msg("notification published")
	return nil
}

func (n *rabbitNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		return fmt.Errorf("close rabbitmq channel: %w", err)
	}
	if n.conn != nil && !n.conn.IsClosed() {
		if err := n.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
