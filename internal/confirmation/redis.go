package confirmation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// consumeScript deletes the hash only when the code matches and is still live.
// It returns {payload, created_at_ms} or nil.
var consumeScript = redis.NewScript(`
	local code = redis.call('HGET', KEYS[1], 'code')
	if not code or code ~= ARGV[1] then
		return false
	end
	local created = tonumber(redis.call('HGET', KEYS[1], 'created_at'))
	if not created or created <= tonumber(ARGV[2]) then
		return false
	end
	local payload = redis.call('HGET', KEYS[1], 'payload')
	redis.call('DEL', KEYS[1])
	return {payload, tostring(created)}
`)

type redisStore struct {
	client redis.UniversalClient
	logger zerolog.Logger
}

// NewRedisStore creates a Store keeping one hash per (type, subject) that
// expires on its own once the TTL has elapsed.
func NewRedisStore(client redis.UniversalClient, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		logger: logger.With().Str("component", "confirmation").Str("store", "redis").Logger(),
	}
}

func redisKey(subject string, t Type) string {
	return fmt.Sprintf("confirmation:%s:%s", t, subject)
}

func (s *redisStore) Replace(ctx context.Context, rec Record, ttl time.Duration) error {
	key := redisKey(rec.Subject, rec.Type)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code", rec.Code,
			"payload", rec.Payload,
			"created_at", rec.CreatedAt.UnixMilli(),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *redisStore) Consume(ctx context.Context, subject string, t Type, code string, notBefore time.Time) (*Record, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{redisKey(subject, t)}, code, notBefore.UnixMilli()).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected consume result: %v", res)
	}

	payload, _ := res[0].(string)
	createdStr, _ := res[1].(string)
	createdMs, err := strconv.ParseInt(createdStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdStr, err)
	}

	return &Record{
		Subject:   subject,
		Type:      t,
		Code:      code,
		Payload:   payload,
		CreatedAt: time.UnixMilli(createdMs).UTC(),
	}, nil
}

func (s *redisStore) Purge(ctx context.Context, subject string, t Type) (int64, error) {
	n, err := s.client.Del(ctx, redisKey(subject, t)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to purge codes: %w", err)
	}
	return n, nil
}

// PurgeExpired is a no-op: keys carry their own expiry.
func (s *redisStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
