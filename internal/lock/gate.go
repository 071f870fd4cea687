// Package lock provides the busy gate that keeps at most one regeneration
// in flight across the whole system.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"menu-planner/internal/config"
)

// ErrBusy is returned by TryAcquire when the gate is already held.
var ErrBusy = errors.New("gate is busy")

// Gate is a non-blocking, system-wide mutual exclusion.
type Gate interface {
	// TryAcquire takes the gate or fails immediately with ErrBusy.
	// The returned function releases it and is safe to call more than once.
	TryAcquire(ctx context.Context) (release func(), err error)
	// Busy reports whether the gate is held, without taking it.
	Busy(ctx context.Context) (bool, error)
	// Shared reports whether other processes use the same gate. State cached
	// by the holder is then stale by the time it acquires again.
	Shared() bool
}

// LocalGate is an in-process Gate.
type LocalGate struct {
	held atomic.Bool
}

// NewLocalGate creates an idle LocalGate.
func NewLocalGate() *LocalGate {
	return &LocalGate{}
}

func (g *LocalGate) TryAcquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !g.held.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			g.held.Store(false)
		}
	}, nil
}

// Held reports whether the gate is currently taken.
func (g *LocalGate) Held() bool {
	return g.held.Load()
}

func (g *LocalGate) Busy(context.Context) (bool, error) {
	return g.Held(), nil
}

func (g *LocalGate) Shared() bool {
	return false
}

// releaseScript deletes the key only if it still holds our token, so an
// expired-and-retaken gate is never released by its previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGate shares the gate between processes through a Redis key with a TTL.
type RedisGate struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// DefaultRedisKey is the key RedisGate locks when none is given.
const DefaultRedisKey = "menu-planner:regeneration"

// NewRedisGate connects to Redis and verifies the connection.
func NewRedisGate(ctx context.Context, cfg config.LockConfig) (*RedisGate, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisGateWithClient(client, DefaultRedisKey, cfg.TTL), nil
}

// NewRedisGateWithClient wraps an existing client.
func NewRedisGateWithClient(client *redis.Client, key string, ttl time.Duration) *RedisGate {
	return &RedisGate{client: client, key: key, ttl: ttl}
}

func (g *RedisGate) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire gate %s: %w", g.key, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// On failure the TTL frees the key.
		_ = releaseScript.Run(ctx, g.client, []string{g.key}, token).Err()
	}, nil
}

func (g *RedisGate) Busy(ctx context.Context) (bool, error) {
	n, err := g.client.Exists(ctx, g.key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check gate %s: %w", g.key, err)
	}
	return n > 0, nil
}

func (g *RedisGate) Shared() bool {
	return true
}

// Close closes the underlying client.
func (g *RedisGate) Close() error {
	return g.client.Close()
}

// New builds the gate selected by cfg.Backend.
func New(ctx context.Context, cfg config.LockConfig) (Gate, error) {
	switch cfg.Backend {
	case config.LockLocal, "":
		return NewLocalGate(), nil
	case config.LockRedis:
		return NewRedisGate(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
