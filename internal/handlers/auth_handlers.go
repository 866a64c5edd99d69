package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/middleware"
	"github.com/contactio/contactio/internal/models"
	"github.com/contactio/contactio/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthHandlers struct {
	authority *auth.Authority
	userRepo  UserStore
	logger    *logrus.Logger
}

func NewAuthHandlers(
	authority *auth.Authority,
	userRepo UserStore,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		authority: authority,
		userRepo:  userRepo,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
		return
	}
	if req.Password == "" || len(req.Password) > 255 {
		respondWithError(w, http.StatusBadRequest, "INVALID_PASSWORD", "Password must be 1-255 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
	}

	if err := h.userRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			respondWithError(w, http.StatusConflict, "USER_EXISTS",
				"User with email "+email+" already registered")
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	pair, err := h.authority.Login(r.Context(), email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) && !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.WithError(err).Error("Login failed")
		}
		respondWithAuthError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_TOKEN", "Refresh token is required")
		return
	}

	pair, err := h.authority.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithAuthError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	if err := h.authority.Logout(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to log out user")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
