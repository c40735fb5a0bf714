package repository

import (
	"context"
	"net/http"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// AuthRepository covers the session endpoints of the backend.
type AuthRepository interface {
	Me(ctx context.Context) (*models.Identity, error)
	UserInfo(ctx context.Context, id string) (*models.UserInfo, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.Identity, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context) error
	EditProfile(ctx context.Context, update models.ProfileUpdate) error
}

type authRepository struct {
	api API
}

// NewAuthRepository creates a new auth repository.
func NewAuthRepository(api API) AuthRepository {
	return &authRepository{api: api}
}

var (
	meStatuses = statusMap{
		http.StatusUnauthorized: asUnauthenticated,
	}
	loginStatuses = statusMap{
		http.StatusBadRequest:          asValidation,
		http.StatusUnprocessableEntity: asValidation,
		http.StatusUnauthorized:        asUnauthenticated,
	}
	registerStatuses = statusMap{
		http.StatusBadRequest:          asValidation,
		http.StatusConflict:            asValidation,
		http.StatusUnprocessableEntity: asValidation,
	}
	profileStatuses = statusMap{
		http.StatusBadRequest:          asValidation,
		http.StatusConflict:            asValidation,
		http.StatusUnprocessableEntity: asValidation,
		http.StatusUnauthorized:        asUnauthenticated,
	}
)

// Me confirms the session. A 401 becomes UNAUTHENTICATED.
func (r *authRepository) Me(ctx context.Context) (*models.Identity, error) {
	var identity models.Identity
	if err := r.api.Get(ctx, "/Auth/me", &identity); err != nil {
		err = translate(err, meStatuses, target{resource: "session"})
		if models.IsUnauthenticated(err) {
			return nil, models.NewUnauthenticatedError("Not authenticated")
		}
		return nil, err
	}
	return &identity, nil
}

func (r *authRepository) UserInfo(ctx context.Context, id string) (*models.UserInfo, error) {
	if id == "" {
		return nil, models.NewValidationError("user id is required")
	}
	var info models.UserInfo
	if err := r.api.Get(ctx, "/Auth/"+id, &info); err != nil {
		return nil, translate(err, readStatuses, target{resource: "user", id: id, fallback: "Failed to fetch user"})
	}
	return &info, nil
}

// Login starts a session. The backend's message, e.g. "Invalid credentials",
// is kept verbatim.
func (r *authRepository) Login(ctx context.Context, req models.LoginRequest) (*models.Identity, error) {
	var resp models.LoginResponse
	if err := r.api.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, translate(err, loginStatuses, target{resource: "session", fallback: "Login failed."})
	}
	if resp.User == nil {
		// Older backends only set the cookie.
		return r.Me(ctx)
	}
	return resp.User, nil
}

func (r *authRepository) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := r.api.Post(ctx, "/auth/register", req, nil); err != nil {
		return translate(err, registerStatuses, target{resource: "user", fallback: "Registration failed."})
	}
	return nil
}

func (r *authRepository) Logout(ctx context.Context) error {
	if err := r.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		return translate(err, nil, target{resource: "session", fallback: "Logout failed"})
	}
	return nil
}

func (r *authRepository) EditProfile(ctx context.Context, update models.ProfileUpdate) error {
	if err := r.api.Put(ctx, "/auth/editprofile", update, nil); err != nil {
		return translate(err, profileStatuses, target{resource: "profile", fallback: "Failed to update profile"})
	}
	return nil
}
