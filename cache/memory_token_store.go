package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryTokenStore implements TokenStore using ttlcache.
type MemoryTokenStore struct {
	cache *ttlcache.Cache[string, *TokenEntry]
}

// NewMemoryTokenStore creates an in-memory token store with automatic
// eviction of expired entries.
func NewMemoryTokenStore(defaultTTL time.Duration) *MemoryTokenStore {
	c := ttlcache.New(
		ttlcache.WithTTL[string, *TokenEntry](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, *TokenEntry](),
	)
	go c.Start()

	return &MemoryTokenStore{cache: c}
}

// Set implements TokenStore.Set. The entry lives until the token expires.
func (s *MemoryTokenStore) Set(_ context.Context, token string, entry *TokenEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(HashToken(token), entry, ttl)
	return nil
}

// Get implements TokenStore.Get.
func (s *MemoryTokenStore) Get(_ context.Context, token string) (*TokenEntry, error) {
	item := s.cache.Get(HashToken(token))
	if item == nil {
		return nil, ErrNotFound
	}
	return item.Value(), nil
}

// Delete implements TokenStore.Delete.
func (s *MemoryTokenStore) Delete(_ context.Context, token string) error {
	s.cache.Delete(HashToken(token))
	return nil
}

// Stop terminates the background eviction loop.
func (s *MemoryTokenStore) Stop() {
	s.cache.Stop()
}

var _ TokenStore = (*MemoryTokenStore)(nil)
