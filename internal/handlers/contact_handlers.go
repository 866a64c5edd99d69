package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/middleware"
	"github.com/contactio/contactio/internal/models"
	"github.com/contactio/contactio/internal/repository"
	"github.com/contactio/contactio/internal/service"
)

type ContactHandlers struct {
	contacts *service.ContactService
	logger   *logrus.Logger
}

func NewContactHandlers(contacts *service.ContactService, logger *logrus.Logger) *ContactHandlers {
	return &ContactHandlers{
		contacts: contacts,
		logger:   logger,
	}
}

type ContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"`
	Extra     string `json:"extra"`
}

func (req *ContactRequest) toContact(ownerEmail string) (*models.Contact, error) {
	contact := &models.Contact{
		OwnerEmail: ownerEmail,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Extra:      req.Extra,
	}
	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return nil, err
		}
		contact.Birthday = &birthday
	}
	return contact, nil
}

func (h *ContactHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	contact, err := req.toContact(user.Email)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_BIRTHDAY", "Birthday must be YYYY-MM-DD")
		return
	}

	if err := h.contacts.Create(r.Context(), contact); err != nil {
		h.respondContactError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandlers) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	contacts, err := h.contacts.List(r.Context(), user.Email, r.URL.Query().Get("q"))
	if err != nil {
		h.respondContactError(w, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	respondWithJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	contact, err := h.contacts.Get(r.Context(), user.Email, mux.Vars(r)["id"])
	if err != nil {
		h.respondContactError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, contact)
}

func (h *ContactHandlers) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	contact, err := req.toContact(user.Email)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_BIRTHDAY", "Birthday must be YYYY-MM-DD")
		return
	}
	contact.ID = mux.Vars(r)["id"]

	if err := h.contacts.Update(r.Context(), contact); err != nil {
		h.respondContactError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, contact)
}

func (h *ContactHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	if err := h.contacts.Delete(r.Context(), user.Email, mux.Vars(r)["id"]); err != nil {
		h.respondContactError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactHandlers) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 366 {
			respondWithError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be between 1 and 366")
			return
		}
		days = parsed
	}

	contacts, err := h.contacts.UpcomingBirthdays(r.Context(), user.Email, days)
	if err != nil {
		h.respondContactError(w, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	respondWithJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandlers) respondContactError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrContactNotFound):
		respondWithError(w, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found")
	case errors.Is(err, service.ErrInvalidContact):
		respondWithError(w, http.StatusBadRequest, "INVALID_CONTACT", err.Error())
	default:
		h.logger.WithError(err).Error("Contact operation failed")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
