package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/models"
)

// Scope selects which secret/algorithm pair signs a token and which expiry
// policy applies to it. The two scopes are never interchangeable.
type Scope string

const (
	ScopeAccess  Scope = "access_token"
	ScopeRefresh Scope = "refresh_token"
)

// UserDirectory is the external store the Authority reads users from and
// persists the logged_in flag to. FindByEmail returns (nil, nil) when no
// user exists for the email.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// Config holds the two independent signing keys and the per-scope TTLs.
// Access tokens are signed HS256 with AccessSecret, refresh tokens HS512
// with RefreshSecret, so a leaked access key cannot forge refresh tokens.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Authority issues and verifies the two token scopes and gates every
// verification on the user's live logged_in flag.
type Authority struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	directory     UserDirectory
	logger        *logrus.Logger
	now           func() time.Time
}

type Option func(*Authority)

// WithClock overrides the time source, used by tests to drive expiry
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
	}
}

func NewAuthority(cfg Config, directory UserDirectory, logger *logrus.Logger, opts ...Option) (*Authority, error) {
	if len(cfg.AccessSecret) < 32 {
		return nil, fmt.Errorf("access secret must be at least 32 bytes")
	}
	if len(cfg.RefreshSecret) < 32 {
		return nil, fmt.Errorf("refresh secret must be at least 32 bytes")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}

	a := &Authority{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		directory:     directory,
		logger:        logger,
		now:           time.Now,
	}
	if a.accessTTL <= 0 {
		a.accessTTL = DefaultAccessTTL
	}
	if a.refreshTTL <= 0 {
		a.refreshTTL = DefaultRefreshTTL
	}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Authority) AccessTTL() time.Duration {
	return a.accessTTL
}

func (a *Authority) keyFor(scope Scope) ([]byte, *jwt.SigningMethodHMAC) {
	if scope == ScopeAccess {
		return a.accessSecret, jwt.SigningMethodHS256
	}
	return a.refreshSecret, jwt.SigningMethodHS512
}

// IssueToken signs a token carrying {sub, exp, scope} with the
// scope-appropriate key and algorithm. The caller is responsible for having
// authenticated the subject already.
func (a *Authority) IssueToken(email string, scope Scope, ttl time.Duration) (string, error) {
	key, method := a.keyFor(scope)

	claims := &Claims{
		Scope: string(scope),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(a.now().UTC().Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		a.logger.WithError(err).WithField("scope", scope).Error("Failed to sign token")
		return "", fmt.Errorf("failed to sign %s: %w", scope, err)
	}
	return signed, nil
}

// VerifyToken resolves a presented token to its user. The checks run in a
// fixed order and the first failure wins:
//
//  1. signature, using expectedScope's key and algorithm
//  2. known scope claim
//  3. non-empty subject
//  4. access expiry (no directory access, no state change)
//  5. directory lookup
//  6. refresh expiry (persists logged_in=false before returning)
//  7. logged_in gate
//
// Expiry is inclusive: a token is expired once now >= exp.
func (a *Authority) VerifyToken(ctx context.Context, tokenString string, expectedScope Scope) (*models.User, error) {
	key, method := a.keyFor(expectedScope)

	// Expiry is validated manually below because an expired refresh token
	// must still resolve its user before being rejected.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Scope != string(ScopeAccess) && claims.Scope != string(ScopeRefresh) {
		return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidToken, claims.Scope)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	expired := !a.now().UTC().Before(claims.ExpiresAt.Time)

	if claims.Scope == string(ScopeAccess) && expired {
		return nil, ErrAccessExpired
	}

	user, err := a.directory.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if claims.Scope == string(ScopeRefresh) && expired {
		user.LoggedIn = false
		if err := a.directory.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to persist logout on refresh expiry: %w", err)
		}
		return nil, ErrRefreshExpired
	}

	if !user.LoggedIn {
		return nil, ErrNotLoggedIn
	}

	return user, nil
}

// Login authenticates the credentials, mints an access/refresh pair and
// flips the user's logged_in flag on.
func (a *Authority) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	user, err := a.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := a.IssueToken(email, ScopeAccess, a.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := a.IssueToken(email, ScopeRefresh, a.refreshTTL)
	if err != nil {
		return nil, err
	}

	user.LoggedIn = true
	if err := a.directory.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist login state: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(a.accessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated: the presented string comes back unchanged
// and stays usable until it expires.
func (a *Authority) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	user, err := a.VerifyToken(ctx, refreshToken, ScopeRefresh)
	if err != nil {
		return nil, err
	}

	accessToken, err := a.IssueToken(user.Email, ScopeAccess, a.accessTTL)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(a.accessTTL.Seconds()),
	}, nil
}

// Logout flips the user's logged_in flag off. Calling it for a user who is
// already logged out is not an error.
func (a *Authority) Logout(ctx context.Context, user *models.User) error {
	user.LoggedIn = false
	if err := a.directory.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to persist logout: %w", err)
	}
	return nil
}
