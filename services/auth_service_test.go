package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lectoria/lectoria/cache"
	"github.com/lectoria/lectoria/domain"
	"github.com/lectoria/lectoria/internal/telegram"
)

// --- Mock Implementations ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) SetPhoneNumber(ctx context.Context, id, phone string) error {
	args := m.Called(ctx, id, phone)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, pageToken string, pageSize int) ([]*domain.User, string, error) {
	args := m.Called(ctx, pageToken, pageSize)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]*domain.User), args.String(1), args.Error(2)
}

// --- AuthService Tests ---

func newTestAuthService(t *testing.T, users domain.UserRepository, gate domain.AccountGate) *AuthService {
	t.Helper()

	signer := NewTokenSigner()
	signer.AddKeySigner(testSecret)
	store := cache.NewMemoryTokenStore(time.Minute)
	t.Cleanup(store.Stop)
	tokens := NewTokenService(signer, store, "lectoria-test", testSecret, time.Hour, 720*time.Hour)

	return NewAuthService(users, tokens, gate, false)
}

func activeUser() *domain.User {
	return &domain.User{
		ID:       "64a1f0c2b3d4e5f601234567",
		Username: "alice",
		Status:   domain.UserStatusActive,
	}
}

func TestIssueTokens_UnknownAccount(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})

	_, err := svc.IssueTokens(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	users.AssertExpectations(t)
}

func TestIssueTokens_GateRejects(t *testing.T) {
	locked := activeUser()
	locked.Status = domain.UserStatusLocked

	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "alice").Return(locked, nil)

	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})

	_, err := svc.IssueTokens(context.Background(), "alice")
	// Same generic error as an unknown account: no enumeration signal.
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestIssueTokens_Success(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil)

	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})

	pair, err := svc.IssueTokens(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
}

func TestIssueTokens_UpdatesLastLogin(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil)
	users.On("TouchLastLogin", mock.Anything, "64a1f0c2b3d4e5f601234567", mock.Anything).Return(nil)

	signer := NewTokenSigner()
	signer.AddKeySigner(testSecret)
	store := cache.NewMemoryTokenStore(time.Minute)
	t.Cleanup(store.Stop)
	tokens := NewTokenService(signer, store, "lectoria-test", testSecret, time.Hour, time.Hour)
	svc := NewAuthService(users, tokens, domain.ActiveAccountGate{}, true)

	_, err := svc.IssueTokens(context.Background(), "alice")
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestLoginWithTelegram_UpsertsThenIssues(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Upsert", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "alice" && u.TelegramID == 42
	})).Return(activeUser(), nil)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil)

	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})

	ident := telegram.Identity{
		TelegramID: 42,
		Username:   "alice",
		FirstName:  "Alice",
		PhotoURL:   telegram.PhotoPlaceholder,
	}

	pair, err := svc.LoginWithTelegram(context.Background(), ident)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	users.AssertExpectations(t)
}

func TestLoginWithTelegram_NoHandle(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})

	_, err := svc.LoginWithTelegram(context.Background(), telegram.Identity{TelegramID: 42})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestLoginWithTelegram_RepeatedLoginReusesAccount(t *testing.T) {
	account := activeUser()

	users := new(MockUserRepository)
	users.On("Upsert", mock.Anything, mock.Anything).Return(account, nil).Twice()
	users.On("GetByUsername", mock.Anything, "alice").Return(account, nil).Twice()

	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})
	ident := telegram.Identity{TelegramID: 42, Username: "alice", FirstName: "Alice"}

	first, err := svc.LoginWithTelegram(context.Background(), ident)
	require.NoError(t, err)
	second, err := svc.LoginWithTelegram(context.Background(), ident)
	require.NoError(t, err)

	// Same account, fresh credentials.
	assert.NotEqual(t, first.Access, second.Access)
	assert.NotEqual(t, first.Refresh, second.Refresh)
	users.AssertExpectations(t)
}

func TestRefresh(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil).Twice()

	svc := newTestAuthService(t, users, domain.ActiveAccountGate{})
	ctx := context.Background()

	pair, err := svc.IssueTokens(ctx, "alice")
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, renewed.Access)

	_, err = svc.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
