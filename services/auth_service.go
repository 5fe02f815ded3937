package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lectoria/lectoria/domain"
	"github.com/lectoria/lectoria/internal/telegram"
)

// ErrAuthenticationFailed covers both a missing account and an account the
// gate rejects. Callers cannot tell the two causes apart.
var ErrAuthenticationFailed = errors.New("no_active_account")

// AuthService runs the passwordless login flow: a verified Telegram
// identity is upserted into the user store, gated, and exchanged for a
// token pair. No password is ever required; the security property rests on
// the upstream hash verification.
type AuthService struct {
	users           domain.UserRepository
	tokens          *TokenService
	gate            domain.AccountGate
	updateLastLogin bool
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	users domain.UserRepository,
	tokens *TokenService,
	gate domain.AccountGate,
	updateLastLogin bool,
) *AuthService {
	return &AuthService{
		users:           users,
		tokens:          tokens,
		gate:            gate,
		updateLastLogin: updateLastLogin,
	}
}

// LoginWithTelegram persists the verified identity and issues a token pair
// for it. The upsert is keyed by username, so repeated logins reuse the
// same account while each call mints fresh tokens.
func (s *AuthService) LoginWithTelegram(ctx context.Context, ident telegram.Identity) (*domain.TokenPair, error) {
	// Accounts are keyed by the Telegram handle. An identity without one
	// cannot be resolved to an account.
	if ident.Username == "" {
		return nil, ErrAuthenticationFailed
	}

	_, err := s.users.Upsert(ctx, &domain.User{
		TelegramID: ident.TelegramID,
		Username:   ident.Username,
		FirstName:  ident.FirstName,
		LastName:   ident.LastName,
		PhotoURL:   ident.PhotoURL,
		Status:     domain.UserStatusActive,
	})
	if err != nil {
		return nil, err
	}

	return s.IssueTokens(ctx, ident.Username)
}

// IssueTokens authenticates an account by username alone and returns a
// fresh token pair. Lookup miss and gate rejection map onto the same
// generic error.
func (s *AuthService) IssueTokens(ctx context.Context, username string) (*domain.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if !s.gate.Passes(user) {
		return nil, ErrAuthenticationFailed
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.updateLastLogin {
		if err := s.users.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
			// Best effort: the login itself already succeeded.
			log.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
		}
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The account is
// re-gated on every refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return s.IssueTokens(ctx, claims.Username)
}
