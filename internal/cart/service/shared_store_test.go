package service

import (
	"context"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	"github.com/smallbiznis/cartsync/internal/cart/repository"
	"github.com/smallbiznis/cartsync/internal/clock"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/internal/config"
	"github.com/smallbiznis/cartsync/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sharedKV stands in for the Redis keyspace two processes share.
type sharedKV struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *sharedKV) Get(ctx context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *sharedKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (s *sharedKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func newInstance(store *sharedKV, locks *fakeLockServer) cartdomain.Service {
	conditions := &conditionsMock{}
	conditions.On("ActiveGlobals", mock.Anything).Return([]*conditiondomain.Condition(nil), nil)

	return NewService(serviceParams{
		Log:        zap.NewNop(),
		Repo:       repository.NewRedisRepository(store, 0),
		Conditions: conditions,
		Evaluator:  conditiondomain.RuleEvaluatorFunc(func(conditiondomain.Rules, conditiondomain.Facts) bool { return true }),
		Publisher:  NewBus(),
		Locker:     NewRedisLocker(locks, time.Second, zap.NewNop()),
		Config:     config.NewStaticCartConfigHolder(config.DefaultCartConfig()),
		Clock:      clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		Metrics:    metrics.NewNop(),
	})
}

func TestInstancesSharingRedisSerializeOneCart(t *testing.T) {
	store := &sharedKV{data: map[string]string{}}
	locks := newFakeLockServer()
	a := newInstance(store, locks)
	b := newInstance(store, locks)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, svc := range []cartdomain.Service{a, b} {
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Add(ctx, cartKey, cartdomain.Item{ID: "a", Name: "A", Price: 10, Quantity: 1})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	for _, svc := range []cartdomain.Service{a, b} {
		c, err := svc.Get(ctx, cartKey)
		require.NoError(t, err)
		require.NotNil(t, c)
		item, ok := c.Item("a")
		require.True(t, ok)
		assert.Equal(t, int64(40), item.Quantity)
		assert.Equal(t, int64(40), c.Version())
	}
}
