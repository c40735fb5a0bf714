package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/RaduPandor/Blog-Web-App/internal/cache"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/repository"
	"github.com/RaduPandor/Blog-Web-App/internal/session"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
)

// AuthService runs the sign-in, sign-up, profile and sign-out flows and
// keeps the IdentityContext in step with them.
type AuthService struct {
	auth     repository.AuthRepository
	identity *session.IdentityContext
	cache    *cache.QueryCache
	logger   *slog.Logger
}

func NewAuthService(auth repository.AuthRepository, identity *session.IdentityContext, qc *cache.QueryCache, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{auth: auth, identity: identity, cache: qc, logger: logger}
}

// Login signs in and records the identity. Failures carry the backend's
// message verbatim; use models.UserMessage(err, "Login failed.") to show them.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required.")
	}
	identity, err := s.auth.Login(ctx, models.LoginRequest{Username: strings.TrimSpace(username), Password: password})
	if err != nil {
		return nil, err
	}
	if err := s.identity.Set(ctx, identity); err != nil {
		s.logger.WarnContext(ctx, "failed to persist identity after login", slog.String("error", err.Error()))
	}
	return s.identity.Current(), nil
}

// RegisterResult tells the caller whether the automatic sign-in after
// registration worked. When it did not, the account exists and the user
// should sign in manually.
type RegisterResult struct {
	Identity *models.Identity
	LoggedIn bool
	LoginErr error
}

// Register validates the form, creates the account and signs in with it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*RegisterResult, error) {
	if err := validation.ValidateRegistration(req); err != nil {
		return nil, err
	}
	trimmed := models.RegisterRequest{
		Username:        strings.TrimSpace(req.Username),
		DisplayName:     strings.TrimSpace(req.DisplayName),
		Password:        strings.TrimSpace(req.Password),
		ConfirmPassword: strings.TrimSpace(req.ConfirmPassword),
	}
	if err := s.auth.Register(ctx, trimmed); err != nil {
		return nil, err
	}

	identity, err := s.Login(ctx, trimmed.Username, trimmed.Password)
	if err != nil {
		s.logger.InfoContext(ctx, "automatic login after registration failed", slog.String("error", err.Error()))
		return &RegisterResult{LoggedIn: false, LoginErr: err}, nil
	}
	return &RegisterResult{Identity: identity, LoggedIn: true}, nil
}

// Logout ends the session. The local identity and cached reads are dropped
// even when the backend call fails; that error is still returned.
func (s *AuthService) Logout(ctx context.Context) error {
	remoteErr := s.auth.Logout(ctx)
	if remoteErr != nil {
		s.logger.WarnContext(ctx, "backend logout failed", slog.String("error", remoteErr.Error()))
	}

	localCtx := context.WithoutCancel(ctx)
	if err := s.identity.Reset(localCtx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear stored identity", slog.String("error", err.Error()))
	}
	if s.cache != nil {
		s.cache.Invalidate(localCtx, cache.PostsListKey)
	}
	return remoteErr
}

// EditProfile validates and sends the profile form, then reconfirms the
// identity so the new names show up.
func (s *AuthService) EditProfile(ctx context.Context, update models.ProfileUpdate) (*models.Identity, error) {
	if err := validation.ValidateProfile(update); err != nil {
		return nil, err
	}
	update.Username = strings.TrimSpace(update.Username)
	update.DisplayName = strings.TrimSpace(update.DisplayName)
	if err := s.auth.EditProfile(ctx, update); err != nil {
		return nil, err
	}
	identity, err := s.identity.Refresh(ctx)
	if err != nil {
		s.logger.InfoContext(ctx, "identity refresh after profile update failed", slog.String("error", err.Error()))
	}
	return identity, nil
}

// UserInfo returns the public display record of a user.
func (s *AuthService) UserInfo(ctx context.Context, id string) (*models.UserInfo, error) {
	return s.auth.UserInfo(ctx, id)
}

// WhoAmI confirms the session and returns the identity, nil when signed out.
func (s *AuthService) WhoAmI(ctx context.Context) (*models.Identity, error) {
	return s.identity.Refresh(ctx)
}
