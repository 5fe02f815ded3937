package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectoria/lectoria/cache"
	"github.com/lectoria/lectoria/domain"
)

const testSecret = "test-signing-secret"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	signer := NewTokenSigner()
	signer.AddKeySigner(testSecret)
	store := cache.NewMemoryTokenStore(time.Minute)
	t.Cleanup(store.Stop)

	return NewTokenService(signer, store, "lectoria-test", testSecret, time.Hour, 720*time.Hour)
}

func testUser() *domain.User {
	return &domain.User{
		ID:       "64a1f0c2b3d4e5f601234567",
		Username: "alice",
		Status:   domain.UserStatusActive,
	}
}

func TestGeneratePair_DistinctSignedTokens(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair(context.Background(), testUser())
	require.NoError(t, err)

	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	accessClaims, err := ts.Parse(pair.Access)
	require.NoError(t, err)
	refreshClaims, err := ts.Parse(pair.Refresh)
	require.NoError(t, err)

	// Both credentials bind the same account.
	assert.Equal(t, "64a1f0c2b3d4e5f601234567", accessClaims.Subject)
	assert.Equal(t, accessClaims.Subject, refreshClaims.Subject)
	assert.Equal(t, domain.TokenTypeAccess, accessClaims.TokenType)
	assert.Equal(t, domain.TokenTypeRefresh, refreshClaims.TokenType)
	assert.True(t, refreshClaims.ExpiresAt.After(accessClaims.ExpiresAt.Time))
}

func TestGeneratePair_FreshTokensEachCall(t *testing.T) {
	ts := newTestTokenService(t)
	ctx := context.Background()
	user := testUser()

	first, err := ts.GeneratePair(ctx, user)
	require.NoError(t, err)
	second, err := ts.GeneratePair(ctx, user)
	require.NoError(t, err)

	assert.NotEqual(t, first.Access, second.Access)
	assert.NotEqual(t, first.Refresh, second.Refresh)

	c1, err := ts.Parse(first.Access)
	require.NoError(t, err)
	c2, err := ts.Parse(second.Access)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestParse_RejectsTamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair(context.Background(), testUser())
	require.NoError(t, err)

	_, err = ts.Parse(pair.Access + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_RejectsForeignSignature(t *testing.T) {
	ts := newTestTokenService(t)

	foreignSigner := NewTokenSigner()
	foreignSigner.AddKeySigner("some-other-secret")
	foreignStore := cache.NewMemoryTokenStore(time.Minute)
	t.Cleanup(foreignStore.Stop)
	foreign := NewTokenService(foreignSigner, foreignStore, "lectoria-test", "some-other-secret", time.Hour, time.Hour)

	pair, err := foreign.GeneratePair(context.Background(), testUser())
	require.NoError(t, err)

	_, err = ts.Parse(pair.Access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAccessToken(t *testing.T) {
	ts := newTestTokenService(t)
	ctx := context.Background()

	pair, err := ts.GeneratePair(ctx, testUser())
	require.NoError(t, err)

	entry, err := ts.ValidateAccessToken(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", entry.Username)

	// Second validation is served from the cache.
	cached, err := ts.ValidateAccessToken(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, entry.UserID, cached.UserID)

	// A refresh token is not a valid bearer credential.
	_, err = ts.ValidateAccessToken(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateRefreshToken(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair(context.Background(), testUser())
	require.NoError(t, err)

	claims, err := ts.ValidateRefreshToken(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	_, err = ts.ValidateRefreshToken(pair.Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
