package handlers

import (
	"context"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/models"
)

// UserStore is the slice of the user repository the handlers need. It is
// satisfied by repository.UserRepository.
type UserStore interface {
	auth.UserDirectory
	Create(ctx context.Context, user *models.User) error
}
