package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Artexxx/hr-services/internal/cache"
	"github.com/Artexxx/hr-services/internal/config"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
	"github.com/Artexxx/hr-services/internal/metrics"
)

// OpenPresenceCache connects to redis.addr. The cache is opt-in: with an
// empty address, or when Redis does not answer, it returns nil and
// existence checks always ask the owning service. Callers and owners must
// point at the same Redis and DB, so that an owner's delete evicts the
// marker callers read. The returned func releases the connection.
func OpenPresenceCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*cache.PresenceCache, func()) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("presence cache disabled")
		return nil, func() {}
	}

	pc := cache.NewPresenceCache(client, cfg.Redis.PresenceTTL, log)
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.PresenceTTL).Msg("presence cache enabled")

	return pc, func() { _ = pc.Close() }
}

// UpstreamOptions configures the rpc clients of one binary. They share a
// single fasthttp client. pc may be nil.
func UpstreamOptions(cfg *config.Config, service string, m *metrics.Recorder, pc *cache.PresenceCache) []rpc.Option {
	opts := []rpc.Option{
		rpc.WithDoer(rpc.NewHTTPClient(service)),
		rpc.WithTimeout(cfg.RPC.Timeout),
		rpc.WithRetries(cfg.RPC.Retries),
		rpc.WithMetrics(m),
	}

	if pc != nil {
		opts = append(opts, rpc.WithPresenceCache(pc))
	}

	return opts
}
