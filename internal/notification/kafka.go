package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer used by the notifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaNotifier struct {
	writer MessageWriter
	logger zerolog.Logger
}

// NewKafkaNotifier publishes messages as JSON, keyed by recipient, for an SMS relay to consume.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) Notifier {
	return NewKafkaNotifierWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, logger)
}

// NewKafkaNotifierWithWriter wraps an existing writer.
func NewKafkaNotifierWithWriter(w MessageWriter, logger zerolog.Logger) Notifier {
	return &kafkaNotifier{
		writer: w,
		logger: logger.With().Str("component", "notifier").Str("backend", "kafka").Logger(),
	}
}

func (n *kafkaNotifier) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish notification to kafka: %w", err)
	}

	n.logger.Debug().Str("to", maskPhone(msg.To)).Msg("notification published")
	return nil
}

func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
