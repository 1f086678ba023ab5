// Package notification delivers short text messages to phone numbers.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"menu-advisor/internal/config"

	"github.com/rs/zerolog"
)

// ErrNoRecipient is returned when a message has no phone number.
var ErrNoRecipient = errors.New("notification has no recipient")

// Message is a text message addressed to a phone number.
type Message struct {
	Sender string `json:"sender"`
	To     string `json:"to"`
	Text   string `json:"text"`
}

// Validate checks the message can be delivered.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// Notifier delivers messages synchronously.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// New builds the notifier selected by cfg.Backend.
func New(ctx context.Context, cfg config.NotifierConfig, logger zerolog.Logger) (Notifier, error) {
	switch cfg.Backend {
	case config.NotifierLog, "":
		return NewLogNotifier(logger), nil
	case config.NotifierKafka:
		return NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger), nil
	case config.NotifierRabbitMQ:
		return DialRabbitMQ(ctx, cfg.RabbitMQ, logger)
	case config.NotifierSMTP:
		return NewSMTPNotifier(cfg.SMTP, logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", cfg.Backend)
	}
}

type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that only logs messages.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{
		logger: logger.With().Str("component", "notifier").Str("backend", "log").Logger(),
	}
}

func (n *logNotifier) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	n.logger.Info().
		Str("sender", msg.Sender).
		Str("to", maskPhone(msg.To)).
		Str("text", msg.Text).
		Msg("sms notification")
	return nil
}

func (n *logNotifier) Close() error {
	return nil
}

// maskPhone keeps the last four digits of a number for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
