package promo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// checkAndPushScript appends ARGV[2] unless the list already holds more than ARGV[1] entries.
var checkAndPushScript = redis.NewScript(`
	local n = redis.call('LLEN', KEYS[1])
	if n > tonumber(ARGV[1]) then
		return 0
	end
	redis.call('RPUSH', KEYS[1], ARGV[2])
	return 1
`)

type redisStore struct {
	client redis.UniversalClient
	logger zerolog.Logger
}

// NewRedisStore creates a UsageStore keeping one list per usage key.
func NewRedisStore(client redis.UniversalClient, logger zerolog.Logger) UsageStore {
	return &redisStore{
		client: client,
		logger: logger.With().Str("component", "promo").Str("store", "redis").Logger(),
	}
}

type usageEntry struct {
	Expiry    string `json:"dateFin,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func (s *redisStore) CheckAndRecord(ctx context.Context, usage Usage, maxUses int) (bool, error) {
	entry, err := json.Marshal(usageEntry{
		Expiry:    usage.Expiry,
		CreatedAt: usage.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode promo usage: %w", err)
	}

	res, err := checkAndPushScript.Run(ctx, s.client, []string{"promo:" + usage.Key()}, maxUses, string(entry)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to record promo usage: %w", err)
	}

	return res == 1, nil
}
