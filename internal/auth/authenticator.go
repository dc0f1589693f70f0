package auth

import (
	"context"
	"log/slog"

	"campusrent/internal/middleware"
	"campusrent/internal/models"
)

// invalidCredentialsMessage is shared by unknown-email and wrong-password failures.
const invalidCredentialsMessage = "Invalid email or password"

// UserLookup is the slice of the user repository the authenticator needs.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

// Authenticator checks email/password pairs against stored users.
type Authenticator struct {
	users UserLookup
}

// NewAuthenticator returns an Authenticator reading users from users.
func NewAuthenticator(users UserLookup) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate returns the user matching email and password. An unknown email and a wrong
// password produce the same validation error. Legacy digests are upgraded on success.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, models.NewValidationError(invalidCredentialsMessage)
	}

	if NeedsRehash(user.PasswordHash) {
		if hash, err := HashPassword(password); err == nil {
			if err := a.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				middleware.Logger.WarnContext(ctx, "password rehash failed",
					slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
			} else {
				user.PasswordHash = hash
			}
		}
	}

	return user, nil
}
