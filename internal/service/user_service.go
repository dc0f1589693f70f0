// Package service implements the marketplace's domain operations on top of the repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"campusrent/internal/auth"
	"campusrent/internal/cache"
	"campusrent/internal/middleware"
	"campusrent/internal/models"
	"campusrent/internal/repository"
	"campusrent/internal/validation"
)

type UserService struct {
	store  *repository.Store
	auth   *auth.Authenticator
	tokens *auth.TokenManager
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"notblank,max=255"`
	Password string `json:"password" validate:"required,max=256"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is a successful login: the user and a freshly issued bearer token.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func NewUserService(store *repository.Store, tokens *auth.TokenManager) *UserService {
	return &UserService{
		store:  store,
		auth:   auth.NewAuthenticator(store.Users),
		tokens: tokens,
	}
}

// Register creates a user with a hashed password. Emails are unique case-insensitively.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	}

	err = s.store.WithinTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Users.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewValidationError("Email already registered")
		}
		return tx.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login checks credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.auth.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout revokes the token until it would have expired anyway. It reports false when
// no revocation store is available.
func (s *UserService) Logout(ctx context.Context, claims auth.Claims) (bool, error) {
	if cache.GetClient() == nil {
		return false, nil
	}
	if err := cache.RevokeToken(ctx, claims.TokenID, time.Until(claims.ExpiresAt)); err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

// GetByID returns a user, served from the Redis user cache when it is warm.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users.GetByID(ctx, id)
}
