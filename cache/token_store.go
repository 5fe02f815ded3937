package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a token is absent from the store.
var ErrNotFound = errors.New("token not cached")

// TokenEntry is the cached result of a successful access-token validation.
// Caching it lets the auth middleware skip signature verification on
// repeated requests with the same bearer token.
type TokenEntry struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore caches validated tokens keyed by a hash of the raw token.
type TokenStore interface {
	Set(ctx context.Context, token string, entry *TokenEntry) error
	Get(ctx context.Context, token string) (*TokenEntry, error)
	Delete(ctx context.Context, token string) error
}

// HashToken shortens a signed token to a fixed-size cache key. Raw tokens
// never appear as keys in the store.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
