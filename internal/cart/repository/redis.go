package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	"github.com/smallbiznis/cartsync/internal/config"
	"go.uber.org/zap"
)

const keyCartData = "cart:data:"

// kv is the slice of the Redis API the cart store needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisRepository struct {
	client kv
	ttl    time.Duration
}

// New returns the Redis-backed store when a Redis client is configured, so
// every process locking a cart key through Redis also shares its state.
// Without Redis the store is process-local.
func New(client *redis.Client, cfg config.Config, log *zap.Logger) cartdomain.Repository {
	if client == nil {
		return NewRepository()
	}
	log.Named("cart.repository").Info("using redis cart store", zap.Duration("ttl", cfg.CartStoreTTL))
	return NewRedisRepository(client, cfg.CartStoreTTL)
}

// NewRedisRepository stores each cart as one JSON document. A positive ttl
// expires carts that have not been saved for that long.
func NewRedisRepository(client kv, ttl time.Duration) cartdomain.Repository {
	return &redisRepository{client: client, ttl: ttl}
}

func redisKey(key cartdomain.Key) string {
	return keyCartData + key.String()
}

func (r *redisRepository) Get(ctx context.Context, key cartdomain.Key) (*cartdomain.Cart, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state cartdomain.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", key, err)
	}
	return cartdomain.Restore(state)
}

func (r *redisRepository) Save(ctx context.Context, cart *cartdomain.Cart) error {
	raw, err := json.Marshal(cart.State())
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.Key(), err)
	}
	return r.client.Set(ctx, redisKey(cart.Key()), raw, r.ttl).Err()
}

func (r *redisRepository) Delete(ctx context.Context, key cartdomain.Key) error {
	return r.client.Del(ctx, redisKey(key)).Err()
}
