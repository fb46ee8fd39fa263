package auth

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens on logout until their natural expiry.
type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) bool
}

// NewBlacklistFromEnv returns a redis-backed blacklist when REDIS_ADDRESS is
// set, otherwise an in-process one. Single-instance deployments don't need
// redis; anything behind a load balancer does.
func NewBlacklistFromEnv() TokenBlacklist {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		return NewMemoryBlacklist()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	return &RedisBlacklist{client: client}
}

type RedisBlacklist struct {
	client *redis.Client
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return b.client.Set(ctx, blacklistKey(token), "1", ttl).Err()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) bool {
	n, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	return err == nil && n > 0
}

func blacklistKey(token string) string {
	return "token_blacklist:" + token
}

// MemoryBlacklist is the in-process fallback.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[token] = time.Now().Add(ttl)
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, token string) bool {
	b.mu.RLock()
	expiry, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false
	}
	return true
}
