package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"homefinder-client/internal/cache"
	"homefinder-client/internal/model"
	"homefinder-client/internal/repository"
	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/uid"
)

const (
	// ResetTokenTTL bounds how long a password reset token is valid.
	ResetTokenTTL = 1 * time.Hour

	resetKeyPrefix = "reset:"
)

// AuthService handles accounts and sessions.
type AuthService struct {
	users  repository.UserRepository
	tokens *TokenService
	cache  cache.Cache
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens *TokenService, c cache.Cache, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, cache: c, logger: logger}
}

// Session is a signed-in user with its token and CSRF value.
type Session struct {
	User  model.User
	Token string
	CSRF  string
}

// Register creates a user account.
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (model.ID, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", apierror.InternalError("failed to hash password")
	}

	rec := &repository.UserRecord{
		User: model.User{
			Username:    in.Username,
			Email:       in.Email,
			Role:        model.RoleUser,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			PhoneNumber: in.PhoneNumber,
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", apierror.BadRequest("Username or email already exists")
		}
		return "", apierror.InternalError(err.Error())
	}

	s.logger.Info("user registered", slog.String("user_id", rec.ID.String()))
	return rec.ID, nil
}

// Login checks credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, apierror.BadRequest("Username/email and password are required")
	}
	rec, err := s.users.GetByLogin(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Unauthorized("Invalid credentials")
		}
		return nil, apierror.InternalError(err.Error())
	}
	if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(creds.Password)) != nil {
		return nil, apierror.Unauthorized("Invalid credentials")
	}

	token, csrf, err := s.tokens.Issue(rec.ID.String(), string(rec.Role))
	if err != nil {
		return nil, apierror.InternalError("failed to issue token")
	}
	return &Session{User: rec.User, Token: token, CSRF: csrf}, nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.logger.Warn("token revocation failed", slog.String("error", err.Error()))
		return apierror.InternalError("failed to revoke session")
	}
	return nil
}

// Profile returns the user's profile.
func (s *AuthService) Profile(ctx context.Context, userID model.ID) (model.User, error) {
	rec, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, notFoundOr(err, "User not found")
	}
	return rec.User, nil
}

// UpdateProfile merges upd into the user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID model.ID, upd model.ProfileUpdate) (model.User, error) {
	if err := upd.Validate(); err != nil {
		return model.User{}, err
	}
	rec, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, notFoundOr(err, "User not found")
	}
	updated := upd.Apply(rec.User)
	if err := s.users.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.User{}, apierror.BadRequest("Username or email already exists")
		}
		return model.User{}, notFoundOr(err, "User not found")
	}
	return updated, nil
}

// RequestPasswordReset issues a reset token for the account with email.
// Unknown addresses succeed silently and return "".
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := (model.PasswordResetRequest{Email: email}).Validate(); err != nil {
		return "", err
	}
	rec, err := s.users.GetByLogin(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apierror.InternalError(err.Error())
	}

	token := uid.Token()
	if err := s.cache.Set(ctx, resetKeyPrefix+token, []byte(rec.ID), ResetTokenTTL); err != nil {
		return "", apierror.InternalError("failed to store reset token")
	}
	s.logger.Info("password reset requested", slog.String("user_id", rec.ID.String()))
	return token, nil
}

// ResetPassword sets a new password using a reset token. Tokens are single use.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < 6 {
		return apierror.ValidationError("password must be at least 6 characters",
			apierror.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	raw, err := s.cache.Get(ctx, resetKeyPrefix+token)
	if err != nil {
		return apierror.BadRequest("Invalid or expired token")
	}
	_ = s.cache.Delete(ctx, resetKeyPrefix+token)

	rec, err := s.users.GetByID(ctx, model.ID(raw))
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apierror.InternalError("failed to hash password")
	}
	if err := s.users.SetPassword(ctx, rec.ID, hash); err != nil {
		return notFoundOr(err, "User not found")
	}
	return nil
}
