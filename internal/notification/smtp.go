package notification

import (
	"context"
	"fmt"
	"strings"

	"menu-advisor/internal/config"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

// MailSender is the part of gomail.Dialer used by the notifier.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpNotifier struct {
	sender  MailSender
	from    string
	gateway string
	logger  zerolog.Logger
}

// NewSMTPNotifier sends each message as a plain text email to
// <digits>@<gateway>, the address format of email-to-SMS gateways.
func NewSMTPNotifier(cfg config.SMTPConfig, logger zerolog.Logger) Notifier {
	return NewSMTPNotifierWithSender(
		gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg.From,
		cfg.GatewayDomain,
		logger,
	)
}

// NewSMTPNotifierWithSender wraps an existing sender.
func NewSMTPNotifierWithSender(sender MailSender, from, gateway string, logger zerolog.Logger) Notifier {
	return &smtpNotifier{
		sender:  sender,
		from:    from,
		gateway: gateway,
		logger:  logger.With().Str("component", "notifier").Str("backend", "smtp").Logger(),
	}
}

func (n *smtpNotifier) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, msg.To)
	if digits == "" {
		return ErrNoRecipient
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.from, msg.Sender)
	m.SetHeader("To", digits+"@"+n.gateway)
	m.SetHeader("Subject", msg.Sender)
	m.SetBody("text/plain", msg.Text)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}

	n.logger.Debug().Str("to", maskPhone(msg.To)).Msg("notification emailed")
	return nil
}

func (n *smtpNotifier) Close() error {
	return nil
}
