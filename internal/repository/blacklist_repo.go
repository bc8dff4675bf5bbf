package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:refresh:"

// RedisBlacklist records revoked refresh-token ids. Each key expires together
// with the token it revokes, so the set never outgrows the live tokens.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

// Revoke is idempotent: revoking an already revoked id keeps the original
// entry and reports success.
func (b *RedisBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := b.client.SetNX(ctx, blacklistKeyPrefix+tokenID, time.Now().UTC().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check refresh token revocation: %w", err)
	}
	return n > 0, nil
}

func (b *RedisBlacklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// MemoryBlacklist is the in-process fallback used when no Redis is
// configured. Expired entries are dropped lazily on lookup.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: map[string]time.Time{}, now: time.Now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[tokenID]; !exists {
		b.entries[tokenID] = b.now().Add(ttl)
	}
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, exists := b.entries[tokenID]
	if !exists {
		return false, nil
	}
	if !b.now().Before(expiresAt) {
		delete(b.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (b *MemoryBlacklist) Ping(context.Context) error {
	return nil
}
