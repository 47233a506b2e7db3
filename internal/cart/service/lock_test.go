package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cartsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLockerBlocksSameKey(t *testing.T) {
	l := NewLocalLocker(8)

	unlock, err := l.Lock(context.Background(), "default:user:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "default:user:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	again, err := l.Lock(context.Background(), "default:user:1")
	require.NoError(t, err)
	again()
}

func TestRedisLockerRequiresClient(t *testing.T) {
	l := NewRedisLocker(nil, time.Second, zap.NewNop())
	_, err := l.Lock(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewKeyLockerWithoutClientIsLocal(t *testing.T) {
	l := NewKeyLocker(nil, config.Config{}, zap.NewNop())
	_, ok := l.(*localLocker)
	assert.True(t, ok)
}

// fakeLockServer evaluates the lock scripts against an in-memory key space.
type fakeLockServer struct {
	mu      sync.Mutex
	owners  map[string]string
	renewed map[string]int
	lost    bool
}

func newFakeLockServer() *fakeLockServer {
	return &fakeLockServer{owners: map[string]string{}, renewed: map[string]int{}}
}

func (f *fakeLockServer) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.owners[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.owners[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeLockServer) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, token := keys[0], args[0].(string)
	if f.lost || f.owners[key] != token {
		return redis.NewCmdResult(int64(0), nil)
	}
	if strings.Contains(script, "PEXPIRE") {
		f.renewed[key]++
	} else {
		delete(f.owners, key)
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeLockServer) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	for _, src := range []string{lockReleaseScript, lockRenewScript} {
		if redis.NewScript(src).Hash() == sha1 {
			return f.Eval(ctx, src, keys, args...)
		}
	}
	return redis.NewCmdResult(nil, errors.New("unknown script"))
}

func (f *fakeLockServer) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeLockServer) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeLockServer) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeLockServer) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (f *fakeLockServer) renewals(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewed[key]
}

func (f *fakeLockServer) owner(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.owners[key]
	return v, ok
}

func TestRedisLockerRenewsLeaseWhileHeld(t *testing.T) {
	server := newFakeLockServer()
	l := NewRedisLocker(server, 30*time.Millisecond, zap.NewNop())

	unlock, err := l.Lock(context.Background(), "default:user:1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return server.renewals("cart:lock:default:user:1") >= 2
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "default:user:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	_, held := server.owner("cart:lock:default:user:1")
	assert.False(t, held)

	after := server.renewals("cart:lock:default:user:1")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, server.renewals("cart:lock:default:user:1"))
}

func TestRedisLockerStopsRenewingAfterLeaseLost(t *testing.T) {
	server := newFakeLockServer()
	l := NewRedisLocker(server, 30*time.Millisecond, zap.NewNop())

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	server.mu.Lock()
	server.lost = true
	server.mu.Unlock()

	time.Sleep(40 * time.Millisecond)
	// Release returns even though the watchdog already gave up.
	unlock()
	assert.Equal(t, 0, server.renewals("cart:lock:k"))
}
