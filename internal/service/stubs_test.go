package service

import (
	"context"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	listFn   func(context.Context) ([]models.PostPreview, error)
	getFn    func(context.Context, int) (*models.Post, error)
	createFn func(context.Context, models.NewPost) (*models.Post, error)
	updateFn func(context.Context, models.Post) (*models.Post, error)
	deleteFn func(context.Context, int) error
}

func (s *postRepoStub) List(ctx context.Context) ([]models.PostPreview, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) Get(ctx context.Context, id int) (*models.Post, error) {
	return s.getFn(ctx, id)
}
func (s *postRepoStub) Create(ctx context.Context, in models.NewPost) (*models.Post, error) {
	return s.createFn(ctx, in)
}
func (s *postRepoStub) Update(ctx context.Context, in models.Post) (*models.Post, error) {
	return s.updateFn(ctx, in)
}
func (s *postRepoStub) Delete(ctx context.Context, id int) error {
	return s.deleteFn(ctx, id)
}

// authRepoStub is a stub for repository.AuthRepository.
type authRepoStub struct {
	meFn          func(context.Context) (*models.Identity, error)
	userInfoFn    func(context.Context, string) (*models.UserInfo, error)
	loginFn       func(context.Context, models.LoginRequest) (*models.Identity, error)
	registerFn    func(context.Context, models.RegisterRequest) error
	logoutFn      func(context.Context) error
	editProfileFn func(context.Context, models.ProfileUpdate) error
}

func (s *authRepoStub) Me(ctx context.Context) (*models.Identity, error) {
	return s.meFn(ctx)
}
func (s *authRepoStub) UserInfo(ctx context.Context, id string) (*models.UserInfo, error) {
	return s.userInfoFn(ctx, id)
}
func (s *authRepoStub) Login(ctx context.Context, req models.LoginRequest) (*models.Identity, error) {
	return s.loginFn(ctx, req)
}
func (s *authRepoStub) Register(ctx context.Context, req models.RegisterRequest) error {
	return s.registerFn(ctx, req)
}
func (s *authRepoStub) Logout(ctx context.Context) error {
	return s.logoutFn(ctx)
}
func (s *authRepoStub) EditProfile(ctx context.Context, update models.ProfileUpdate) error {
	return s.editProfileFn(ctx, update)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	listFn    func(context.Context) ([]models.UserAccount, error)
	createFn  func(context.Context, models.CreateUserInput) (*models.UserAccount, error)
	updateFn  func(context.Context, string, models.UpdateUserInput) error
	setRoleFn func(context.Context, string, string) error
	deleteFn  func(context.Context, string) error
}

func (s *userRepoStub) List(ctx context.Context) ([]models.UserAccount, error) {
	return s.listFn(ctx)
}
func (s *userRepoStub) Create(ctx context.Context, in models.CreateUserInput) (*models.UserAccount, error) {
	return s.createFn(ctx, in)
}
func (s *userRepoStub) Update(ctx context.Context, id string, in models.UpdateUserInput) error {
	return s.updateFn(ctx, id, in)
}
func (s *userRepoStub) SetRole(ctx context.Context, id, role string) error {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type fixedIdentity struct {
	identity *models.Identity
}

func (f fixedIdentity) Current() *models.Identity { return f.identity }

func adminIdentity() *models.Identity {
	return &models.Identity{ID: "admin-1", UserName: "admin", Roles: []string{models.RoleAdmin}}
}

func userIdentity() *models.Identity {
	return &models.Identity{ID: "user-1", UserName: "ann", Roles: []string{models.RoleUser}}
}
