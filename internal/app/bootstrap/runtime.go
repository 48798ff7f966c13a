package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/eyeclinic-web/internal/config"
	"github.com/wolfman30/eyeclinic-web/internal/session"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the wizard session backend from SESSION_STORE. An
// unreachable Redis falls back to memory outside production. The returned
// close func releases the Redis connection, if any.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Store, func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() error { return nil }

	switch cfg.SessionStore {
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client != nil {
			logger.Info("session store: redis", "addr", cfg.RedisAddr)
			return session.NewRedisStore(client, cfg.SessionTTL, nil), client.Close, nil
		}
		if cfg.IsProduction() {
			return nil, nil, fmt.Errorf("bootstrap: SESSION_STORE=redis but redis at %q is unavailable", cfg.RedisAddr)
		}
		logger.Warn("session store: redis unavailable, falling back to memory")
	case "memory", "":
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown SESSION_STORE %q", cfg.SessionStore)
	}

	store, err := session.NewMemoryStore(cfg.SessionMemorySize, cfg.SessionTTL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("session store: memory", "size", cfg.SessionMemorySize)
	return store, noop, nil
}
