package service

import (
	"context"
	"testing"

	"github.com/RaduPandor/Blog-Web-App/internal/featureflags"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingUserRepo(t *testing.T) *userRepoStub {
	fail := func() { t.Fatal("non-admins must be refused before any backend call") }
	return &userRepoStub{
		listFn:    func(context.Context) ([]models.UserAccount, error) { fail(); return nil, nil },
		createFn:  func(context.Context, models.CreateUserInput) (*models.UserAccount, error) { fail(); return nil, nil },
		updateFn:  func(context.Context, string, models.UpdateUserInput) error { fail(); return nil },
		setRoleFn: func(context.Context, string, string) error { fail(); return nil },
		deleteFn:  func(context.Context, string) error { fail(); return nil },
	}
}

func TestUserAdmin_RefusesNonAdmins(t *testing.T) {
	for name, identity := range map[string]*models.Identity{"anonymous": nil, "user": userIdentity()} {
		t.Run(name, func(t *testing.T) {
			svc := NewUserAdmin(failingUserRepo(t), fixedIdentity{identity}, featureflags.NewManager(""), observability.Discard())
			ctx := context.Background()

			_, err := svc.ListUsers(ctx)
			assert.True(t, models.IsForbidden(err))
			_, err = svc.CreateUser(ctx, models.CreateUserInput{Username: "x", DisplayName: "X", Password: "p"})
			assert.True(t, models.IsForbidden(err))
			assert.True(t, models.IsForbidden(svc.UpdateUser(ctx, "1", models.UpdateUserInput{Username: "x", DisplayName: "X"})))
			assert.True(t, models.IsForbidden(svc.SetUserRole(ctx, "1", models.RoleAdmin)))
			assert.True(t, models.IsForbidden(svc.DeleteUser(ctx, "1")))
		})
	}
}

func TestUserAdmin_CreateAdminTwoStep(t *testing.T) {
	var roleCalls []string
	repo := &userRepoStub{
		createFn: func(_ context.Context, in models.CreateUserInput) (*models.UserAccount, error) {
			return &models.UserAccount{ID: "7", Username: in.Username, DisplayName: in.DisplayName, Role: models.RoleUser}, nil
		},
		setRoleFn: func(_ context.Context, id, role string) error {
			roleCalls = append(roleCalls, id+":"+role)
			return nil
		},
	}
	svc := NewUserAdmin(repo, fixedIdentity{adminIdentity()}, featureflags.NewManager(""), observability.Discard())

	created, err := svc.CreateUser(context.Background(), models.CreateUserInput{Username: "bob", DisplayName: "Bob", Password: "p", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.Equal(t, []string{"7:Admin"}, roleCalls)
}

func TestUserAdmin_CreateAdminAtomic(t *testing.T) {
	repo := &userRepoStub{
		createFn: func(_ context.Context, in models.CreateUserInput) (*models.UserAccount, error) {
			assert.True(t, in.IsAdmin)
			return &models.UserAccount{ID: "7", Username: in.Username}, nil
		},
		setRoleFn: func(context.Context, string, string) error {
			t.Fatal("atomic backends need no role call")
			return nil
		},
	}
	features := featureflags.NewManager(featureflags.AtomicUserRole + "=on")
	svc := NewUserAdmin(repo, fixedIdentity{adminIdentity()}, features, observability.Discard())

	created, err := svc.CreateUser(context.Background(), models.CreateUserInput{Username: "bob", DisplayName: "Bob", Password: "p", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
}

func TestUserAdmin_CreateAdminPartialFailure(t *testing.T) {
	repo := &userRepoStub{
		createFn: func(_ context.Context, in models.CreateUserInput) (*models.UserAccount, error) {
			return &models.UserAccount{ID: "7", Username: in.Username, Role: models.RoleUser}, nil
		},
		setRoleFn: func(context.Context, string, string) error {
			return models.NewFetchError(500, "Internal Server Error")
		},
	}
	svc := NewUserAdmin(repo, fixedIdentity{adminIdentity()}, featureflags.NewManager(""), observability.Discard())

	created, err := svc.CreateUser(context.Background(), models.CreateUserInput{Username: "bob", DisplayName: "Bob", Password: "p", IsAdmin: true})
	require.Error(t, err)
	require.NotNil(t, created, "the account exists even though the role step failed")
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, models.IsPartialFailure(err))
	assert.Equal(t, models.SeverityWarning, models.SeverityOf(err))
	assert.Contains(t, models.UserMessage(err, ""), "bob was created")
}

func TestUserAdmin_CreateRequiresFields(t *testing.T) {
	tests := []struct {
		name string
		in   models.CreateUserInput
	}{
		{name: "only username", in: models.CreateUserInput{Username: "bob"}},
		{name: "blank username", in: models.CreateUserInput{Username: "  ", DisplayName: "Bob", Password: "x"}},
		{name: "blank display name", in: models.CreateUserInput{Username: "bob", DisplayName: "\t", Password: "x"}},
		{name: "no password", in: models.CreateUserInput{Username: "bob", DisplayName: "Bob", IsAdmin: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserAdmin(failingUserRepo(t), fixedIdentity{adminIdentity()}, featureflags.NewManager(""), observability.Discard())
			created, err := svc.CreateUser(context.Background(), tt.in)
			assert.Nil(t, created)
			assert.True(t, models.IsValidation(err))
			assert.Equal(t, validation.ValidateNewUser(tt.in), err)
		})
	}
}

func TestUserAdmin_SaveUserOnlyChangesRoleWhenDifferent(t *testing.T) {
	var calls []string
	repo := &userRepoStub{
		updateFn: func(_ context.Context, id string, in models.UpdateUserInput) error {
			calls = append(calls, "update:"+id+":"+in.DisplayName)
			return nil
		},
		setRoleFn: func(_ context.Context, id, role string) error {
			calls = append(calls, "role:"+id+":"+role)
			return nil
		},
	}
	svc := NewUserAdmin(repo, fixedIdentity{adminIdentity()}, featureflags.NewManager(""), observability.Discard())
	before := models.UserAccount{ID: "3", Username: "cy", DisplayName: "Cy", Role: models.RoleUser}

	require.NoError(t, svc.SaveUser(context.Background(), before, models.UserAccount{Username: "cy", DisplayName: "Cyrus", Role: models.RoleUser}))
	require.NoError(t, svc.SaveUser(context.Background(), before, models.UserAccount{Username: "cy", DisplayName: "Cy", Role: models.RoleAdmin}))
	assert.Equal(t, []string{"update:3:Cyrus", "update:3:Cy", "role:3:Admin"}, calls)

	err := svc.SaveUser(context.Background(), before, models.UserAccount{Username: "cy", DisplayName: "Cy", Role: "Owner"})
	assert.True(t, models.IsValidation(err))
	assert.Len(t, calls, 3, "an invalid role is refused before anything is sent")
}

func TestUserAdmin_SetUserRoleValidates(t *testing.T) {
	svc := NewUserAdmin(failingUserRepo(t), fixedIdentity{adminIdentity()}, featureflags.NewManager(""), observability.Discard())
	assert.True(t, models.IsValidation(svc.SetUserRole(context.Background(), "1", "root")))
}

func TestUserAdmin_ListUsers(t *testing.T) {
	repo := &userRepoStub{listFn: func(context.Context) ([]models.UserAccount, error) {
		return []models.UserAccount{{ID: "1", Username: "ann", DisplayName: "ann", Role: models.RoleUser}}, nil
	}}
	svc := NewUserAdmin(repo, fixedIdentity{adminIdentity()}, featureflags.NewManager(""), observability.Discard())
	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
