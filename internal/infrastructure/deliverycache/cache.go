// Package deliverycache remembers processed webhook delivery ids in Redis.
package deliverycache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "money-coach:webhook-delivery:"

// Cache is an optional fast path for replayed deliveries. Lookups that fail are
// treated as misses: the webhook handlers stay idempotent without it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func New(redisURL string, ttl time.Duration, log zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Cache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    log.With().Str("component", "delivery_cache").Logger(),
	}, nil
}

// Seen reports whether deliveryID was processed within the TTL.
func (c *Cache) Seen(ctx context.Context, deliveryID string) bool {
	n, err := c.client.Exists(ctx, keyPrefix+deliveryID).Result()
	if err != nil {
		c.log.Warn().Err(err).Msg("delivery lookup failed")
		return false
	}
	return n > 0
}

// Remember records a successfully processed delivery.
func (c *Cache) Remember(ctx context.Context, deliveryID string) {
	if err := c.client.SetNX(ctx, keyPrefix+deliveryID, time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("delivery record failed")
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
