package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lectoria/lectoria/cache"
	"github.com/lectoria/lectoria/domain"
)

var (
	ErrTokenInvalid   = errors.New("token is invalid or expired")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// TokenClaims are the claims embedded in every issued credential. Each
// token is self-describing: holders of the verification key can validate
// it without any server-side session lookup.
type TokenClaims struct {
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService mints and validates signed token pairs. It keeps no state
// per issued token; the only shared state is the validation cache.
type TokenService struct {
	signer     *TokenSigner
	cache      cache.TokenStore
	issuer     string
	verifyKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a new TokenService instance. secretKey is the
// HMAC key used both for signing (via signer) and verification.
func NewTokenService(
	signer *TokenSigner,
	tokenCache cache.TokenStore,
	issuer string,
	secretKey string,
	accessTTL, refreshTTL time.Duration,
) *TokenService {
	return &TokenService{
		signer:     signer,
		cache:      tokenCache,
		issuer:     issuer,
		verifyKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GeneratePair mints a fresh refresh/access token pair for the user. Each
// call produces new token IDs; pairs are never reused across calls.
func (s *TokenService) GeneratePair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	refresh, err := s.mint(user, domain.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to mint refresh token: %w", err)
	}

	access, err := s.mint(user, domain.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to mint access token: %w", err)
	}

	log.Ctx(ctx).Debug().Str("user_id", user.ID).Msg("token pair issued")

	return &domain.TokenPair{
		Refresh: refresh,
		Access:  access,
	}, nil
}

func (s *TokenService) mint(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	return s.signer.Sign(claims, "")
}

// Parse verifies the signature and standard claims of a raw token.
func (s *TokenService) Parse(raw string) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.verifyKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// ValidateAccessToken checks a bearer token, consulting the cache before
// re-verifying the signature. Valid tokens are cached until they expire.
func (s *TokenService) ValidateAccessToken(ctx context.Context, raw string) (*cache.TokenEntry, error) {
	if entry, err := s.cache.Get(ctx, raw); err == nil {
		if time.Now().Before(entry.ExpiresAt) && entry.TokenType == domain.TokenTypeAccess {
			return entry, nil
		}
		if delErr := s.cache.Delete(ctx, raw); delErr != nil {
			log.Ctx(ctx).Warn().Err(delErr).Msg("failed to evict stale token from cache")
		}
		return nil, ErrTokenInvalid
	}

	claims, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != domain.TokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	entry := &cache.TokenEntry{
		UserID:    claims.Subject,
		Username:  claims.Username,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.cache.Set(ctx, raw, entry); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to cache validated access token")
	}

	return entry, nil
}

// ValidateRefreshToken verifies a refresh token and returns its claims.
func (s *TokenService) ValidateRefreshToken(raw string) (*TokenClaims, error) {
	claims, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != domain.TokenTypeRefresh {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
