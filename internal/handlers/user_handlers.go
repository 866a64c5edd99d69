package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/media"
	"github.com/contactio/contactio/internal/middleware"
)

const maxAvatarSize = 10 << 20 // 10 MiB

type UserHandlers struct {
	userRepo UserStore
	uploader media.Uploader
	logger   *logrus.Logger
}

func NewUserHandlers(userRepo UserStore, uploader media.Uploader, logger *logrus.Logger) *UserHandlers {
	return &UserHandlers{
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (h *UserHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected multipart form with an avatar file")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "MISSING_AVATAR", "Avatar file is required")
		return
	}
	defer file.Close()

	avatarURL, err := h.uploader.UploadAvatar(r.Context(), user.Email, file)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upload avatar")
		respondWithError(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload avatar")
		return
	}

	user.AvatarURL = avatarURL
	if err := h.userRepo.Save(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to persist avatar URL")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save avatar")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"details": avatarURL})
}

func (h *UserHandlers) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	if err := h.uploader.DeleteAvatar(r.Context(), user.Email); err != nil {
		h.logger.WithError(err).Error("Failed to delete avatar")
		respondWithError(w, http.StatusBadGateway, "DELETE_FAILED", "Failed to delete avatar")
		return
	}

	user.AvatarURL = ""
	if err := h.userRepo.Save(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to persist avatar removal")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save avatar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
