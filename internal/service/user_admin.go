package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RaduPandor/Blog-Web-App/internal/access"
	"github.com/RaduPandor/Blog-Web-App/internal/featureflags"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/repository"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
)

// IdentitySource returns the identity the client currently acts as.
type IdentitySource interface {
	Current() *models.Identity
}

// UserAdmin manages accounts on behalf of an admin. Every call is refused
// locally unless the current identity is an admin; the backend checks again.
type UserAdmin struct {
	users    repository.UserRepository
	identity IdentitySource
	features *featureflags.Manager
	logger   *slog.Logger
}

func NewUserAdmin(users repository.UserRepository, identity IdentitySource, features *featureflags.Manager, logger *slog.Logger) *UserAdmin {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserAdmin{users: users, identity: identity, features: features, logger: logger}
}

func (s *UserAdmin) authorize() error {
	if !access.CanAccessAdminPanel(s.identity.Current()) {
		return models.NewForbiddenError(0, "Admin access required")
	}
	return nil
}

func (s *UserAdmin) ListUsers(ctx context.Context) ([]models.UserAccount, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// CreateUser adds an account with the requested role. When the backend
// applies isAdmin itself this is one call. Otherwise the role is assigned
// in a second call, and if only that step fails the returned account is
// non-nil and the error is a PARTIAL_FAILURE warning.
func (s *UserAdmin) CreateUser(ctx context.Context, in models.CreateUserInput) (*models.UserAccount, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	if err := validation.ValidateNewUser(in); err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.features.Enabled(featureflags.AtomicUserRole) || !in.IsAdmin {
		created.Role = in.Role()
		return created, nil
	}

	if created.Role == models.RoleAdmin {
		return created, nil
	}
	if err := s.users.SetRole(ctx, created.ID, models.RoleAdmin); err != nil {
		s.logger.WarnContext(ctx, "user created without requested admin role",
			slog.String("user_id", created.ID),
			slog.String("error", err.Error()),
		)
		created.Role = models.RoleUser
		return created, models.NewPartialFailureError(
			fmt.Sprintf("User %s was created, but the Admin role could not be assigned", created.Username), err)
	}
	created.Role = models.RoleAdmin
	return created, nil
}

func (s *UserAdmin) UpdateUser(ctx context.Context, id string, in models.UpdateUserInput) error {
	if err := s.authorize(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.DisplayName) == "" {
		return models.NewValidationError("Username and display name are required")
	}
	return s.users.Update(ctx, id, in)
}

func (s *UserAdmin) SetUserRole(ctx context.Context, id, role string) error {
	if err := s.authorize(); err != nil {
		return err
	}
	if !models.ValidRole(role) {
		return models.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}
	return s.users.SetRole(ctx, id, role)
}

// SaveUser applies an edit-dialog result: names first, then the role, but
// only when it changed. A role failure after a saved rename is a
// PARTIAL_FAILURE warning.
func (s *UserAdmin) SaveUser(ctx context.Context, before models.UserAccount, edited models.UserAccount) error {
	if edited.Role != "" && !models.ValidRole(edited.Role) {
		return models.NewValidationError(fmt.Sprintf("unknown role %q", edited.Role))
	}
	if err := s.UpdateUser(ctx, before.ID, models.UpdateUserInput{Username: edited.Username, DisplayName: edited.DisplayName}); err != nil {
		return err
	}
	if edited.Role == "" || edited.Role == before.Normalize().Role {
		return nil
	}
	if err := s.SetUserRole(ctx, before.ID, edited.Role); err != nil {
		return models.NewPartialFailureError(
			fmt.Sprintf("User %s was updated, but the role could not be changed", edited.Username), err)
	}
	return nil
}

func (s *UserAdmin) DeleteUser(ctx context.Context, id string) error {
	if err := s.authorize(); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}
