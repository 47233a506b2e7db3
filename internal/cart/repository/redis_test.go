package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestNewFallsBackToMemoryWithoutClient(t *testing.T) {
	repo := New(nil, config.Config{}, zap.NewNop())
	_, ok := repo.(*repository)
	assert.True(t, ok)
}

func TestRedisRepositoryRoundTripsCart(t *testing.T) {
	ctx := context.Background()
	store := newMemKV()
	repo := NewRedisRepository(store, time.Hour)
	key := cartdomain.Key{Identifier: "user:1", Instance: "default"}

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	created := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	cart, err := cartdomain.New(key, "USD", created)
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(cartdomain.Item{
		ID: "a", Name: "Mug", Price: 1000, Quantity: 2,
		Attributes: map[string]any{"color": "red"},
		Conditions: []*conditiondomain.Condition{conditiondomain.MustNew(conditiondomain.Params{
			Name: "mug-sale", Type: conditiondomain.TypeDiscount, Target: "items@item_discount/per-item",
			Value: "-10%", IsActive: true,
		})},
	}))
	require.NoError(t, cart.AddCondition(conditiondomain.MustNew(conditiondomain.Params{
		Name: "welcome", Type: conditiondomain.TypeDiscount, Target: "cart@cart_subtotal/aggregate",
		Value: "-100", IsActive: true,
	})))
	want := cart.Reprice(nil, nil)
	require.NoError(t, repo.Save(ctx, cart))
	assert.Equal(t, time.Hour, store.ttls["cart:data:default:user:1"])

	stored, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, cart.Version(), stored.Version())
	assert.Equal(t, "USD", stored.Currency())
	assert.True(t, created.Equal(stored.CreatedAt()))

	totals, ok := stored.Totals()
	require.True(t, ok)
	assert.Equal(t, want.Total, totals.Total)
	assert.Equal(t, int64(1700), totals.Total)

	// Restored conditions are compiled and price the same way.
	assert.Equal(t, want.Total, stored.Reprice(nil, nil).Total)

	require.NoError(t, repo.Delete(ctx, key))
	got, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisRepositoryRejectsCorruptRecord(t *testing.T) {
	store := newMemKV()
	store.data["cart:data:default:user:1"] = `{"identifier":"user:1","instance":"default","items":[{"id":"a","name":"A","price":-5,"quantity":1}]}`
	repo := NewRedisRepository(store, 0)

	_, err := repo.Get(context.Background(), cartdomain.Key{Identifier: "user:1", Instance: "default"})
	assert.ErrorIs(t, err, cartdomain.ErrInvalidItem)
}
