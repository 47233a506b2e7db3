package service

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cartsync/internal/config"
	"go.uber.org/zap"
)

const (
	keyCartLock = "cart:lock:"

	defaultStripes       = 256
	defaultLockTTL       = 10 * time.Second
	defaultRetryInterval = 20 * time.Millisecond
)

// KeyLocker serializes work on one cart key. The returned func releases the lock.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// NewKeyLocker returns a Redis lock when a Redis client is configured and a
// process-local striped lock otherwise.
func NewKeyLocker(client *redis.Client, cfg config.Config, log *zap.Logger) KeyLocker {
	if client == nil {
		return NewLocalLocker(defaultStripes)
	}
	log.Named("cart.lock").Info("using redis cart lock", zap.Duration("ttl", cfg.CartLockTTL))
	return NewRedisLocker(client, cfg.CartLockTTL, log.Named("cart.lock"))
}

type localLocker struct {
	stripes []chan struct{}
}

func NewLocalLocker(stripes int) KeyLocker {
	if stripes <= 0 {
		stripes = defaultStripes
	}
	l := &localLocker{stripes: make([]chan struct{}, stripes)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	stripe := l.stripes[h.Sum32()%uint32(len(l.stripes))]

	select {
	case stripe <- struct{}{}:
		return func() { <-stripe }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const lockRenewScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// lockClient is the slice of the Redis API the lock needs.
type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type redisLocker struct {
	client  lockClient
	release *redis.Script
	renew   *redis.Script
	ttl     time.Duration
	retry   time.Duration
	log     *zap.Logger
}

// NewRedisLocker leases a key for ttl and keeps renewing the lease while the
// lock is held, so a mutation outliving one lease keeps its exclusivity.
func NewRedisLocker(client lockClient, ttl time.Duration, log *zap.Logger) KeyLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &redisLocker{
		client:  client,
		release: redis.NewScript(lockReleaseScript),
		renew:   redis.NewScript(lockRenewScript),
		ttl:     ttl,
		retry:   defaultRetryInterval,
		log:     log,
	}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.client == nil {
		return nil, errors.New("lock client not configured")
	}
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	lockKey := keyCartLock + key
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	watchCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go l.keepAlive(watchCtx, lockKey, token, done)

	return func() {
		stop()
		<-done
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = l.release.Run(releaseCtx, l.client, []string{lockKey}, token).Err()
	}, nil
}

func (l *redisLocker) keepAlive(ctx context.Context, lockKey, token string, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		interval = l.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewed, err := l.renew.Run(ctx, l.client, []string{lockKey}, token, l.ttl.Milliseconds()).Int64()
			if ctx.Err() != nil {
				return
			}
			if err != nil || renewed == 0 {
				l.log.Warn("cart lock lease lost", zap.String("key", lockKey), zap.Error(err))
				return
			}
		}
	}
}
