package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/contactio/contactio/internal/auth"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondWithAuthError maps the authority's error taxonomy onto HTTP.
// ACCESS_EXPIRED and REFRESH_EXPIRED stay distinct: the first tells the
// client to exchange its refresh token, the second to log in again.
func respondWithAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, auth.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, auth.ErrAccessExpired):
		respondWithError(w, http.StatusUnauthorized, "ACCESS_EXPIRED", "Token expired. Use /auth/refresh with refresh token")
	case errors.Is(err, auth.ErrRefreshExpired):
		respondWithError(w, http.StatusUnauthorized, "REFRESH_EXPIRED", "Token expired. Use /auth/login to get new tokens")
	case errors.Is(err, auth.ErrNotLoggedIn):
		respondWithError(w, http.StatusUnauthorized, "NOT_LOGGED_IN", "User not logged in. Use /auth/login")
	case errors.Is(err, auth.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
	default:
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
