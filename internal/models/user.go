package models

import "strings"

// Role names understood by the backend.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// ValidRole reports whether role is one the backend accepts.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Identity is the authenticated principal as returned by GET /Auth/me.
type Identity struct {
	ID          string   `json:"id" yaml:"id"`
	UserName    string   `json:"userName" yaml:"userName"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Roles       []string `json:"roles" yaml:"roles"`
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the first role, or RoleUser when none is present.
func (i *Identity) PrimaryRole() string {
	if i == nil || len(i.Roles) == 0 || i.Roles[0] == "" {
		return RoleUser
	}
	return i.Roles[0]
}

// Name is the display name, falling back to the user name.
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if strings.TrimSpace(i.DisplayName) != "" {
		return i.DisplayName
	}
	return i.UserName
}

// Normalize returns the identity as it is cached locally: a single role,
// defaulting to RoleUser.
func (i *Identity) Normalize() *Identity {
	if i == nil {
		return nil
	}
	return &Identity{
		ID:          i.ID,
		UserName:    i.UserName,
		DisplayName: i.DisplayName,
		Roles:       []string{i.PrimaryRole()},
	}
}

// UserAccount is a row of the admin user table.
type UserAccount struct {
	ID          string `json:"id" yaml:"id"`
	Username    string `json:"username" yaml:"username"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Role        string `json:"role" yaml:"role"`
}

// Normalize fills display name and role defaults the backend may omit.
func (u UserAccount) Normalize() UserAccount {
	if strings.TrimSpace(u.DisplayName) == "" {
		u.DisplayName = u.Username
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return u
}

// UserInfo is the public display record served by GET /Auth/{id}.
type UserInfo struct {
	ID          string `json:"id" yaml:"id"`
	UserName    string `json:"userName" yaml:"userName"`
	DisplayName string `json:"displayName" yaml:"displayName"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	User *Identity `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ProfileUpdate is the body of PUT /auth/editprofile. An empty password
// keeps the current one.
type ProfileUpdate struct {
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// CreateUserInput is the body of POST /Auth/create.
type CreateUserInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"isAdmin"`
}

// Role returns the role the new account should end up with.
func (in CreateUserInput) Role() string {
	if in.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// UpdateUserInput is the body of PUT /Auth/{id}.
type UpdateUserInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// RoleAssignment is the body of PUT /Auth/{id}/role.
type RoleAssignment struct {
	Role string `json:"role"`
}
