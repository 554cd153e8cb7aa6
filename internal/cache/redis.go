package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultTTL = 30 * time.Second

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// PresenceCache stores "entity is present" markers with a TTL.
// A miss or any Redis error is reported as "not cached".
type PresenceCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return client, nil
}

func NewPresenceCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *PresenceCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &PresenceCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "PresenceCache").Logger(),
	}
}

func (c *PresenceCache) IsPresent(ctx context.Context, key string) (bool, error) {
	err := c.client.Get(ctx, key).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
}

func (c *PresenceCache) MarkPresent(ctx context.Context, key string) error {
	if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Forget drops the marker. Deleting a missing key is not an error.
func (c *PresenceCache) Forget(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	return nil
}

func (c *PresenceCache) Close() error {
	return c.client.Close()
}
