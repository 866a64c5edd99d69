package auth

import "errors"

// Verification and login failures are sentinel errors so callers can map
// each case to a distinct HTTP response. Directory I/O failures are returned
// wrapped and match none of these.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccessExpired      = errors.New("access token expired")
	ErrRefreshExpired     = errors.New("refresh token expired")
	ErrNotLoggedIn        = errors.New("user not logged in")
)
