package echo_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	bookingapi "github.com/lectoria/lectoria/api/echo"
	"github.com/lectoria/lectoria/cache"
	"github.com/lectoria/lectoria/domain"
	"github.com/lectoria/lectoria/internal/bot"
	"github.com/lectoria/lectoria/internal/telegram"
	"github.com/lectoria/lectoria/services"
)

const (
	testBotToken = "110201543:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"
	testSecret   = "test-signing-secret"
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

// --- Test Setup ---

func signWidgetPayload(t *testing.T, p telegram.LoginPayload) string {
	t.Helper()

	pairs := []string{
		"auth_date=" + strconv.FormatInt(p.AuthDate, 10),
		"first_name=" + p.FirstName,
		"id=" + strconv.FormatInt(p.ID, 10),
	}
	if p.LastName != "" {
		pairs = append(pairs, "last_name="+p.LastName)
	}
	if p.PhotoURL != "" {
		pairs = append(pairs, "photo_url="+p.PhotoURL)
	}
	if p.Username != "" {
		pairs = append(pairs, "username="+p.Username)
	}
	sort.Strings(pairs)

	key := sha256.Sum256([]byte(testBotToken))
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func setupAPI(t *testing.T, users *MockUserRepository) *echo.Echo {
	t.Helper()

	signer := services.NewTokenSigner()
	signer.AddKeySigner(testSecret)
	store := cache.NewMemoryTokenStore(time.Minute)
	t.Cleanup(store.Stop)

	tokens := services.NewTokenService(signer, store, "lectoria-test", testSecret, time.Hour, 720*time.Hour)
	auth := services.NewAuthService(users, tokens, domain.ActiveAccountGate{}, false)
	verifier := telegram.NewVerifier(testBotToken)

	api := bookingapi.NewBookingAPI(verifier, auth, tokens, users, nil, nil, bot.NopNotifier{}, nil)

	e := echo.New()
	api.RegisterRoutes(e)
	return e
}

func activeUser() *domain.User {
	return &domain.User{
		ID:       "64a1f0c2b3d4e5f601234567",
		Username: "alice",
		Status:   domain.UserStatusActive,
	}
}

func postJSON(e *echo.Echo, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(payload)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestTelegramLoginHandler_Success(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Upsert", mock.Anything, mock.Anything).Return(activeUser(), nil)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil)

	e := setupAPI(t, users)

	payload := telegram.LoginPayload{
		ID:        42,
		FirstName: "Alice",
		Username:  "alice",
		AuthDate:  time.Now().Unix(),
	}
	payload.Hash = signWidgetPayload(t, payload)

	rec := postJSON(e, "/auth/telegram", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)
}

func TestTelegramLoginHandler_BadHash(t *testing.T) {
	users := new(MockUserRepository)
	e := setupAPI(t, users)

	payload := telegram.LoginPayload{
		ID:        42,
		FirstName: "Alice",
		Username:  "alice",
		AuthDate:  time.Now().Unix(),
	}
	payload.Hash = signWidgetPayload(t, payload)
	payload.Username = "mallory" // tamper after signing

	rec := postJSON(e, "/auth/telegram", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "hash")
	users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestTelegramLoginHandler_GatedAccount(t *testing.T) {
	locked := activeUser()
	locked.Status = domain.UserStatusLocked

	users := new(MockUserRepository)
	users.On("Upsert", mock.Anything, mock.Anything).Return(locked, nil)
	users.On("GetByUsername", mock.Anything, "alice").Return(locked, nil)

	e := setupAPI(t, users)

	payload := telegram.LoginPayload{
		ID:        42,
		FirstName: "Alice",
		Username:  "alice",
		AuthDate:  time.Now().Unix(),
	}
	payload.Hash = signWidgetPayload(t, payload)

	rec := postJSON(e, "/auth/telegram", payload)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_active_account")
}

func TestTelegramLoginHandler_MissingFields(t *testing.T) {
	users := new(MockUserRepository)
	e := setupAPI(t, users)

	rec := postJSON(e, "/auth/telegram", map[string]interface{}{"id": 42})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshHandler(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Upsert", mock.Anything, mock.Anything).Return(activeUser(), nil)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil)

	e := setupAPI(t, users)

	payload := telegram.LoginPayload{
		ID:        42,
		FirstName: "Alice",
		Username:  "alice",
		AuthDate:  time.Now().Unix(),
	}
	payload.Hash = signWidgetPayload(t, payload)

	login := postJSON(e, "/auth/telegram", payload)
	require.Equal(t, http.StatusOK, login.Code)

	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	rec := postJSON(e, "/auth/refresh", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)

	var renewed domain.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))
	assert.NotEqual(t, pair.Access, renewed.Access)

	// An access token is not accepted as a refresh credential.
	rec = postJSON(e, "/auth/refresh", map[string]string{"refresh": pair.Access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserHandler_RequiresToken(t *testing.T) {
	users := new(MockUserRepository)
	e := setupAPI(t, users)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserHandler_WithToken(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Upsert", mock.Anything, mock.Anything).Return(activeUser(), nil)
	users.On("GetByUsername", mock.Anything, "alice").Return(activeUser(), nil)
	users.On("GetByID", mock.Anything, "64a1f0c2b3d4e5f601234567").Return(activeUser(), nil)

	e := setupAPI(t, users)

	payload := telegram.LoginPayload{
		ID:        42,
		FirstName: "Alice",
		Username:  "alice",
		AuthDate:  time.Now().Unix(),
	}
	payload.Hash = signWidgetPayload(t, payload)

	login := postJSON(e, "/auth/telegram", payload)
	require.Equal(t, http.StatusOK, login.Code)

	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestHealthHandler(t *testing.T) {
	users := new(MockUserRepository)
	e := setupAPI(t, users)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
