package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lectoria/lectoria/cache"
)

// TokenStore implements cache.TokenStore on Redis, for deployments running
// more than one server instance.
type TokenStore struct {
	client *redis.Client
	prefix string
}

// NewTokenStore creates a new [TokenStore] instance. prefix namespaces the
// keys so the store can share a Redis database with other data.
func NewTokenStore(client *redis.Client, prefix string) *TokenStore {
	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

func (r *TokenStore) redisKey(token string) string {
	return fmt.Sprintf("%s:token:%s", r.prefix, cache.HashToken(token))
}

// Set stores a validated token entry, expiring with the token itself.
func (r *TokenStore) Set(ctx context.Context, token string, entry *cache.TokenEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal token entry: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token in redis: %w", err)
	}
	return nil
}

// Get retrieves a token entry.
func (r *TokenStore) Get(ctx context.Context, token string) (*cache.TokenEntry, error) {
	payload, err := r.client.Get(ctx, r.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	var entry cache.TokenEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token entry: %w", err)
	}
	return &entry, nil
}

// Delete removes a token entry.
func (r *TokenStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.redisKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}
	return nil
}

var _ cache.TokenStore = (*TokenStore)(nil)
