package sequence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	currentScript = redis.NewScript(`
		if redis.call('EXISTS', KEYS[1]) == 0 then
			redis.call('SET', KEYS[1], 1)
			return 1
		end
		return tonumber(redis.call('GET', KEYS[1]))
	`)

	decrementScript = redis.NewScript(`
		if redis.call('EXISTS', KEYS[1]) == 0 then
			redis.call('SET', KEYS[1], 1)
			return 1
		end
		return redis.call('DECR', KEYS[1])
	`)
)

type redisCounter struct {
	client redis.UniversalClient
	prefix string
	logger zerolog.Logger
}

// NewRedisCounter creates a counter stored as plain Redis integers under "counter:<name>".
func NewRedisCounter(client redis.UniversalClient, logger zerolog.Logger) Counter {
	return &redisCounter{
		client: client,
		prefix: "counter:",
		logger: logger.With().Str("component", "sequence").Str("store", "redis").Logger(),
	}
}

func (c *redisCounter) key(name string) string {
	return c.prefix + name
}

// Next relies on INCR creating missing keys at 0 before incrementing.
func (c *redisCounter) Next(ctx context.Context, name string) (int64, error) {
	value, err := c.client.Incr(ctx, c.key(name)).Result()
	return c.result("next", name, value, err)
}

func (c *redisCounter) Current(ctx context.Context, name string) (int64, error) {
	value, err := currentScript.Run(ctx, c.client, []string{c.key(name)}).Int64()
	return c.result("current", name, value, err)
}

func (c *redisCounter) Decrement(ctx context.Context, name string) (int64, error) {
	value, err := decrementScript.Run(ctx, c.client, []string{c.key(name)}).Int64()
	return c.result("decrement", name, value, err)
}

func (c *redisCounter) Reset(ctx context.Context, name string) (int64, error) {
	return c.Set(ctx, name, 0)
}

func (c *redisCounter) Set(ctx context.Context, name string, value int64) (int64, error) {
	err := c.client.Set(ctx, c.key(name), value, 0).Err()
	return c.result("set", name, value, err)
}

func (c *redisCounter) result(op, name string, value int64, err error) (int64, error) {
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("counter", name).Msg("counter update failed")
		return 0, storageErr(op, name, err)
	}
	return value, nil
}
