package rdb

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cartsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New returns the shared Redis client, or nil when no address is configured.
// The client is closed when the app stops.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	log.Named("redis").Info("redis client configured", zap.String("addr", addr), zap.Int("db", cfg.RedisDB))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
