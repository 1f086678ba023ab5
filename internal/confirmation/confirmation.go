// Package confirmation issues and verifies short-lived numeric codes sent to
// customers by phone.
package confirmation

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
)

// Type is the purpose a code was issued for.
type Type string

const (
	TypeLogin         Type = "login"
	TypeRegister      Type = "register"
	TypeResetPassword Type = "reset-password"
	TypeNewCommand    Type = "new-command"
)

// Valid reports whether t is a known code type.
func (t Type) Valid() bool {
	switch t {
	case TypeLogin, TypeRegister, TypeResetPassword, TypeNewCommand:
		return true
	}
	return false
}

// DefaultTTL is the absolute lifetime of a code counted from its creation.
const DefaultTTL = 5 * time.Minute

const codeDigits = 4

var (
	// ErrInvalidCode is returned for wrong, expired and already used codes alike.
	ErrInvalidCode = errors.New("invalid or expired confirmation code")

	// ErrStorage is returned when the code store fails.
	ErrStorage = errors.New("confirmation storage failure")
)

// Record is a stored code.
type Record struct {
	Subject   string
	Type      Type
	Code      string
	Payload   string
	CreatedAt time.Time
}

// Challenge is handed back to the caller once a code has been issued.
type Challenge struct {
	Code      string
	Token     string
	ExpiresAt time.Time
}

// Store persists codes. Implementations must make Consume atomic so a code
// can be redeemed at most once.
type Store interface {
	// Replace drops every code of (rec.Subject, rec.Type) and stores rec.
	Replace(ctx context.Context, rec Record, ttl time.Duration) error

	// Consume deletes and returns the record matching (subject, type, code)
	// created after notBefore. It returns nil when nothing matched.
	Consume(ctx context.Context, subject string, t Type, code string, notBefore time.Time) (*Record, error)

	// Purge removes the pending codes of (subject, type).
	Purge(ctx context.Context, subject string, t Type) (int64, error)

	// PurgeExpired removes codes created before notBefore.
	PurgeExpired(ctx context.Context, notBefore time.Time) (int64, error)
}

// Gate issues and redeems confirmation codes.
type Gate interface {
	// Issue replaces any pending code of (subject, type) with a fresh one.
	Issue(ctx context.Context, subject string, t Type, payload string) (*Challenge, error)

	// Verify redeems code for (subject, type).
	Verify(ctx context.Context, subject string, t Type, code string) (*Record, error)

	// VerifyToken redeems code for the (subject, type) bound in a challenge token.
	VerifyToken(ctx context.Context, token, code string) (*Record, error)

	// Purge discards pending codes of (subject, type).
	Purge(ctx context.Context, subject string, t Type) error
}

// Option configures a Gate.
type Option func(*gate)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *gate) {
		g.now = now
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(g *gate) {
		g.ttl = ttl
	}
}

type gate struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewGate creates a Gate signing challenge tokens with secret.
func NewGate(store Store, secret string, logger zerolog.Logger, opts ...Option) Gate {
	g := &gate{
		store:  store,
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger.With().Str("component", "confirmation").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gate) Issue(ctx context.Context, subject string, t Type, payload string) (*Challenge, error) {
	if subject == "" || !t.Valid() {
		return nil, fmt.Errorf("confirmation: invalid subject %q or type %q", subject, t)
	}

	code, err := generateCode(codeDigits)
	if err != nil {
		return nil, fmt.Errorf("confirmation: generate code: %w", err)
	}

	createdAt := g.now().UTC().Truncate(time.Millisecond)
	rec := Record{
		Subject:   subject,
		Type:      t,
		Code:      code,
		Payload:   payload,
		CreatedAt: createdAt,
	}

	if err := g.store.Replace(ctx, rec, g.ttl); err != nil {
		g.logger.Error().Err(err).Str("type", string(t)).Msg("failed to store confirmation code")
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	expiresAt := createdAt.Add(g.ttl)
	token, err := g.signToken(subject, t, createdAt, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("confirmation: sign token: %w", err)
	}

	g.logger.Debug().Str("type", string(t)).Time("expires_at", expiresAt).Msg("confirmation code issued")

	return &Challenge{
		Code:      code,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (g *gate) Verify(ctx context.Context, subject string, t Type, code string) (*Record, error) {
	if subject == "" || code == "" {
		return nil, ErrInvalidCode
	}

	rec, err := g.store.Consume(ctx, subject, t, code, g.now().UTC().Add(-g.ttl))
	if err != nil {
		g.logger.Error().Err(err).Str("type", string(t)).Msg("failed to consume confirmation code")
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if rec == nil {
		g.logger.Debug().Str("type", string(t)).Msg("confirmation code rejected")
		return nil, ErrInvalidCode
	}

	return rec, nil
}

func (g *gate) VerifyToken(ctx context.Context, token, code string) (*Record, error) {
	subject, t, err := g.parseToken(token)
	if err != nil {
		g.logger.Debug().Err(err).Msg("confirmation token rejected")
		return nil, ErrInvalidCode
	}
	return g.Verify(ctx, subject, t, code)
}

func (g *gate) Purge(ctx context.Context, subject string, t Type) error {
	n, err := g.store.Purge(ctx, subject, t)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if n > 0 {
		g.logger.Debug().Int64("count", n).Str("type", string(t)).Msg("pending confirmation codes purged")
	}
	return nil
}

// generateCode returns a zero-padded random decimal string of the given length.
func generateCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
