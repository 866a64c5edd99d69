package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/email"
)

// Confirmation links carry an access-scope token that outlives a normal
// session token.
const confirmationTokenTTL = 24 * time.Hour

type EmailHandlers struct {
	authority *auth.Authority
	userRepo  UserStore
	sender    email.Sender
	logger    *logrus.Logger
}

func NewEmailHandlers(
	authority *auth.Authority,
	userRepo UserStore,
	sender email.Sender,
	logger *logrus.Logger,
) *EmailHandlers {
	return &EmailHandlers{
		authority: authority,
		userRepo:  userRepo,
		sender:    sender,
		logger:    logger,
	}
}

type SendConfirmationRequest struct {
	Email string `json:"email"`
}

func (h *EmailHandlers) SendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req SendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	address := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userRepo.FindByEmail(r.Context(), address)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND",
			"User with email "+address+" not found")
		return
	}

	token, err := h.authority.IssueToken(address, auth.ScopeAccess, confirmationTokenTTL)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue confirmation token")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	// Delivery runs in the background so a slow mail provider does not hold
	// the response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.sender.SendConfirmation(ctx, address, token); err != nil {
			h.logger.WithError(err).WithField("email", address).Error("Failed to send confirmation email")
		}
	}()

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "email has been sent to " + address})
}

func (h *EmailHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	user, err := h.authority.VerifyToken(r.Context(), token, auth.ScopeAccess)
	if err != nil {
		respondWithAuthError(w, err)
		return
	}

	if user.EmailConfirmed {
		respondWithError(w, http.StatusConflict, "ALREADY_CONFIRMED",
			"The email "+user.Email+" is already confirmed")
		return
	}

	user.EmailConfirmed = true
	if err := h.userRepo.Save(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to persist email confirmation")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"details": "The email " + user.Email + " has been confirmed",
	})
}
