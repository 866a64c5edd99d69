package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/middleware"
	"github.com/contactio/contactio/internal/models"
)

type memoryDirectory struct {
	users map[string]*models.User
}

func (d *memoryDirectory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := d.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (d *memoryDirectory) Save(_ context.Context, user *models.User) error {
	copied := *user
	d.users[user.Email] = &copied
	return nil
}

func setup(t *testing.T) (*auth.Authority, *memoryDirectory, http.Handler) {
	t.Helper()

	directory := &memoryDirectory{users: make(map[string]*models.User)}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	authority, err := auth.NewAuthority(auth.Config{
		AccessSecret:  "middleware-access-secret-0123456789-ab",
		RefreshSecret: "middleware-refresh-secret-0123456789-a",
	}, directory, logger)
	require.NoError(t, err)

	authMiddleware := middleware.NewAuthMiddleware(authority, logger)
	protected := authMiddleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Email))
	}))

	return authority, directory, protected
}

func doRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRequireAuthMissingHeader(t *testing.T) {
	_, _, protected := setup(t)

	recorder := doRequest(protected, "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	_, _, protected := setup(t)

	recorder := doRequest(protected, "Basic abc123")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireAuthHappyPath(t *testing.T) {
	authority, directory, protected := setup(t)

	directory.users["a@x.co"] = &models.User{Email: "a@x.co", LoggedIn: true}
	token, err := authority.IssueToken("a@x.co", auth.ScopeAccess, time.Hour)
	require.NoError(t, err)

	recorder := doRequest(protected, "Bearer "+token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "a@x.co", recorder.Body.String())
}

func TestRequireAuthLoggedOutUser(t *testing.T) {
	authority, directory, protected := setup(t)

	directory.users["a@x.co"] = &models.User{Email: "a@x.co", LoggedIn: false}
	token, err := authority.IssueToken("a@x.co", auth.ScopeAccess, time.Hour)
	require.NoError(t, err)

	recorder := doRequest(protected, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, "NOT_LOGGED_IN", errorCode(t, recorder))
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	authority, directory, protected := setup(t)

	directory.users["a@x.co"] = &models.User{Email: "a@x.co", LoggedIn: true}
	token, err := authority.IssueToken("a@x.co", auth.ScopeRefresh, time.Hour)
	require.NoError(t, err)

	recorder := doRequest(protected, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, "INVALID_TOKEN", errorCode(t, recorder))
}

func TestRequireAuthExpiredAccessToken(t *testing.T) {
	authority, directory, protected := setup(t)

	directory.users["a@x.co"] = &models.User{Email: "a@x.co", LoggedIn: true}
	token, err := authority.IssueToken("a@x.co", auth.ScopeAccess, -time.Minute)
	require.NoError(t, err)

	recorder := doRequest(protected, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, "ACCESS_EXPIRED", errorCode(t, recorder))
}
