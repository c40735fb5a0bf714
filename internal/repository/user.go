package repository

import (
	"context"
	"strings"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// UserRepository defines the admin user management operations.
type UserRepository interface {
	List(ctx context.Context) ([]models.UserAccount, error)
	Create(ctx context.Context, in models.CreateUserInput) (*models.UserAccount, error)
	Update(ctx context.Context, id string, in models.UpdateUserInput) error
	SetRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	api API
}

// NewUserRepository creates a new user repository.
func NewUserRepository(api API) UserRepository {
	return &userRepository{api: api}
}

func userPath(id string) string {
	return "/Auth/" + id
}

func (r *userRepository) List(ctx context.Context) ([]models.UserAccount, error) {
	var users []models.UserAccount
	if err := r.api.Get(ctx, "/Auth/getall", &users); err != nil {
		return nil, translate(err, adminStatuses, target{resource: "users", fallback: "Failed to fetch users"})
	}
	out := make([]models.UserAccount, 0, len(users))
	for _, u := range users {
		out = append(out, u.Normalize())
	}
	return out, nil
}

// Create adds an account. When the backend does not echo the new account,
// it is looked up by username so callers always get its id.
func (r *userRepository) Create(ctx context.Context, in models.CreateUserInput) (*models.UserAccount, error) {
	var created models.UserAccount
	if err := r.api.Post(ctx, "/Auth/create", in, &created); err != nil {
		return nil, translate(err, adminStatuses, target{resource: "user", fallback: "Failed to create user"})
	}
	if created.ID != "" {
		created = created.Normalize()
		return &created, nil
	}

	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, in.Username) {
			return &u, nil
		}
	}
	return nil, models.NewFetchError(0, "created user "+in.Username+" is missing from the user list")
}

func (r *userRepository) Update(ctx context.Context, id string, in models.UpdateUserInput) error {
	if id == "" {
		return models.NewValidationError("user id is required")
	}
	if err := r.api.Put(ctx, userPath(id), in, nil); err != nil {
		return translate(err, adminStatuses, target{resource: "user", id: id, fallback: "Failed to update user"})
	}
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id, role string) error {
	if id == "" {
		return models.NewValidationError("user id is required")
	}
	if err := r.api.Put(ctx, userPath(id)+"/role", models.RoleAssignment{Role: role}, nil); err != nil {
		return translate(err, adminStatuses, target{resource: "user", id: id, fallback: "Failed to update role"})
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return models.NewValidationError("user id is required")
	}
	if err := r.api.Delete(ctx, userPath(id)); err != nil {
		return translate(err, adminStatuses, target{resource: "user", id: id, fallback: "Failed to delete user"})
	}
	return nil
}
