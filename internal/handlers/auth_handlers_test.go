package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/handlers"
	"github.com/contactio/contactio/internal/models"
	"github.com/contactio/contactio/internal/repository"
)

// memoryUserStore implements handlers.UserStore in memory.
type memoryUserStore struct {
	users map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*models.User)}
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *memoryUserStore) Save(_ context.Context, user *models.User) error {
	copied := *user
	s.users[user.Email] = &copied
	return nil
}

func (s *memoryUserStore) Create(_ context.Context, user *models.User) error {
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrUserExists
	}
	return s.Save(context.Background(), user)
}

type authFixture struct {
	handlers *handlers.AuthHandlers
	store    *memoryUserStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := newMemoryUserStore()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	authority, err := auth.NewAuthority(auth.Config{
		AccessSecret:  "handlers-access-secret-0123456789-abcd",
		RefreshSecret: "handlers-refresh-secret-0123456789-abc",
	}, store, logger)
	require.NoError(t, err)

	return &authFixture{
		handlers: handlers.NewAuthHandlers(authority, store, logger),
		store:    store,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

func decodeErrorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	recorder := postJSON(t, f.handlers.Register, "/api/v1/auth/register", handlers.RegisterRequest{
		Email:    "A@X.co",
		Password: "pw1",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	// Emails are normalized to lower case.
	stored, ok := f.store.users["a@x.co"]
	require.True(t, ok)
	require.True(t, auth.VerifyPassword("pw1", stored.PasswordHash))
	require.False(t, stored.LoggedIn)

	// The hash never leaves the server.
	require.NotContains(t, recorder.Body.String(), stored.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newAuthFixture(t)

	first := postJSON(t, f.handlers.Register, "/api/v1/auth/register", handlers.RegisterRequest{
		Email: "a@x.co", Password: "pw1",
	})
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, f.handlers.Register, "/api/v1/auth/register", handlers.RegisterRequest{
		Email: "a@x.co", Password: "pw2",
	})
	require.Equal(t, http.StatusConflict, second.Code)
	require.Equal(t, "USER_EXISTS", decodeErrorCode(t, second))
}

func TestRegisterInvalidEmail(t *testing.T) {
	f := newAuthFixture(t)

	recorder := postJSON(t, f.handlers.Register, "/api/v1/auth/register", handlers.RegisterRequest{
		Email: "not-an-email", Password: "pw1",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLoginFlow(t *testing.T) {
	f := newAuthFixture(t)

	postJSON(t, f.handlers.Register, "/api/v1/auth/register", handlers.RegisterRequest{
		Email: "a@x.co", Password: "pw1",
	})

	unknown := postJSON(t, f.handlers.Login, "/api/v1/auth/login", handlers.LoginRequest{
		Email: "b@x.co", Password: "pw1",
	})
	require.Equal(t, http.StatusNotFound, unknown.Code)
	require.Equal(t, "USER_NOT_FOUND", decodeErrorCode(t, unknown))

	wrongPassword := postJSON(t, f.handlers.Login, "/api/v1/auth/login", handlers.LoginRequest{
		Email: "a@x.co", Password: "nope",
	})
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, "INVALID_CREDENTIALS", decodeErrorCode(t, wrongPassword))

	success := postJSON(t, f.handlers.Login, "/api/v1/auth/login", handlers.LoginRequest{
		Email: "a@x.co", Password: "pw1",
	})
	require.Equal(t, http.StatusOK, success.Code)

	var pair models.TokenPair
	require.NoError(t, json.Unmarshal(success.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, f.store.users["a@x.co"].LoggedIn)
}

func TestRefreshEndpoint(t *testing.T) {
	f := newAuthFixture(t)

	postJSON(t, f.handlers.Register, "/api/v1/auth/register", handlers.RegisterRequest{
		Email: "a@x.co", Password: "pw1",
	})
	login := postJSON(t, f.handlers.Login, "/api/v1/auth/login", handlers.LoginRequest{
		Email: "a@x.co", Password: "pw1",
	})
	var pair models.TokenPair
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	missing := postJSON(t, f.handlers.Refresh, "/api/v1/auth/refresh", handlers.RefreshRequest{})
	require.Equal(t, http.StatusBadRequest, missing.Code)

	garbage := postJSON(t, f.handlers.Refresh, "/api/v1/auth/refresh", handlers.RefreshRequest{
		RefreshToken: "junk",
	})
	require.Equal(t, http.StatusUnauthorized, garbage.Code)
	require.Equal(t, "INVALID_TOKEN", decodeErrorCode(t, garbage))

	refreshed := postJSON(t, f.handlers.Refresh, "/api/v1/auth/refresh", handlers.RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refreshed.Code)

	var newPair models.TokenPair
	require.NoError(t, json.Unmarshal(refreshed.Body.Bytes(), &newPair))
	require.Equal(t, pair.RefreshToken, newPair.RefreshToken)
	require.NotEmpty(t, newPair.AccessToken)
}
