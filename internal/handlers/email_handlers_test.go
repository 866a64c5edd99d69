package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/handlers"
	"github.com/contactio/contactio/internal/models"
)

type captureSender struct {
	mu    sync.Mutex
	sent  chan struct{}
	to    string
	token string
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: make(chan struct{}, 1)}
}

func (s *captureSender) SendConfirmation(_ context.Context, toEmail, token string) error {
	s.mu.Lock()
	s.to = toEmail
	s.token = token
	s.mu.Unlock()
	s.sent <- struct{}{}
	return nil
}

type emailFixture struct {
	handlers  *handlers.EmailHandlers
	authority *auth.Authority
	store     *memoryUserStore
	sender    *captureSender
	router    *mux.Router
}

func newEmailFixture(t *testing.T) *emailFixture {
	t.Helper()

	store := newMemoryUserStore()
	sender := newCaptureSender()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	authority, err := auth.NewAuthority(auth.Config{
		AccessSecret:  "email-access-secret-0123456789-abcdefg",
		RefreshSecret: "email-refresh-secret-0123456789-abcdef",
	}, store, logger)
	require.NoError(t, err)

	emailHandlers := handlers.NewEmailHandlers(authority, store, sender, logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/email/send-confirmation", emailHandlers.SendConfirmation).Methods("POST")
	router.HandleFunc("/api/v1/email/confirm/{token}", emailHandlers.Confirm).Methods("GET")

	return &emailFixture{
		handlers:  emailHandlers,
		authority: authority,
		store:     store,
		sender:    sender,
		router:    router,
	}
}

func TestSendConfirmationUnknownUser(t *testing.T) {
	f := newEmailFixture(t)

	recorder := postJSON(t, f.handlers.SendConfirmation, "/api/v1/email/send-confirmation",
		handlers.SendConfirmationRequest{Email: "ghost@x.co"})
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestConfirmationFlow(t *testing.T) {
	f := newEmailFixture(t)

	f.store.users["a@x.co"] = &models.User{Email: "a@x.co", LoggedIn: true}

	recorder := postJSON(t, f.handlers.SendConfirmation, "/api/v1/email/send-confirmation",
		handlers.SendConfirmationRequest{Email: "a@x.co"})
	require.Equal(t, http.StatusOK, recorder.Code)

	select {
	case <-f.sender.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email was not sent")
	}
	require.Equal(t, "a@x.co", f.sender.to)
	require.NotEmpty(t, f.sender.token)

	confirm := httptest.NewRequest(http.MethodGet, "/api/v1/email/confirm/"+f.sender.token, nil)
	confirmRecorder := httptest.NewRecorder()
	f.router.ServeHTTP(confirmRecorder, confirm)
	require.Equal(t, http.StatusOK, confirmRecorder.Code)
	require.True(t, f.store.users["a@x.co"].EmailConfirmed)

	// Confirming a second time conflicts.
	again := httptest.NewRequest(http.MethodGet, "/api/v1/email/confirm/"+f.sender.token, nil)
	againRecorder := httptest.NewRecorder()
	f.router.ServeHTTP(againRecorder, again)
	require.Equal(t, http.StatusConflict, againRecorder.Code)
}

func TestConfirmInvalidToken(t *testing.T) {
	f := newEmailFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/email/confirm/garbage", nil)
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, "INVALID_TOKEN", decodeErrorCode(t, recorder))
}
