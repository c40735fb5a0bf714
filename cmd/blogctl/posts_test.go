package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/client"
	"github.com/RaduPandor/Blog-Web-App/internal/config"
	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/devserver"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/RaduPandor/Blog-Web-App/internal/seed"
	"github.com/RaduPandor/Blog-Web-App/internal/service"
	"github.com/RaduPandor/Blog-Web-App/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret#1"

// startBackend serves a dev backend with an admin and two plain users.
func startBackend(t *testing.T) string {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:", observability.Discard())
	require.NoError(t, err)

	hash, err := seed.HashPassword(testPassword)
	require.NoError(t, err)
	for _, u := range []database.UserRecord{
		{ID: "11111111-1111-1111-1111-111111111111", Username: "admin", DisplayName: "The Admin", PasswordHash: hash, Role: models.RoleAdmin},
		{ID: "22222222-2222-2222-2222-222222222222", Username: "alice", DisplayName: "Alice", PasswordHash: hash, Role: models.RoleUser},
		{ID: "33333333-3333-3333-3333-333333333333", Username: "bob", DisplayName: "Bob", PasswordHash: hash, Role: models.RoleUser},
	} {
		require.NoError(t, db.Create(&u).Error)
	}

	srv, err := devserver.New(db, devserver.Options{
		JWTSecret:       "blogctl-test-secret-blogctl-test-secret",
		SessionTTL:      time.Hour,
		HonorCreateRole: true,
		Logger:          observability.Discard(),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.App().Listener(ln) }()
	t.Cleanup(func() { _ = srv.App().Shutdown() })
	return "http://" + ln.Addr().String() + "/api"
}

// signedInApp returns an app whose client is signed in as username.
func signedInApp(t *testing.T, baseURL, username string) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a := &app{
		ctx:    context.Background(),
		stdout: &out,
		stderr: &out,
		connect: func(ctx context.Context) (*client.Client, error) {
			return client.New(ctx, &config.Config{
				APIURL:                 baseURL,
				RequestTimeout:         5 * time.Second,
				IdentityConfirmTimeout: 2 * time.Second,
				IdentityRetries:        1,
				CacheBackend:           "memory",
				CacheTTL:               time.Minute,
				SessionStore:           "memory",
			}, client.Options{Store: session.NewMemoryStore(), Logger: observability.Discard()})
		},
	}
	t.Cleanup(func() { _ = a.close() })
	run(t, a, "login", "--username", username, "--password", testPassword)
	out.Reset()
	return a, &out
}

func run(t *testing.T, a *app, args ...string) {
	t.Helper()
	require.NoError(t, rootCommand(a).Execute(args, &bytes.Buffer{}))
}

func createPost(t *testing.T, a *app, out *bytes.Buffer, title string) int {
	t.Helper()
	out.Reset()
	run(t, a, "posts", "create", "--title", title, "--content", "Body of "+title, "--output", "json")
	var post models.Post
	require.NoError(t, json.Unmarshal(out.Bytes(), &post))
	out.Reset()
	return post.ID
}

func TestPostsDelete_OtherAuthorsPostIsRefusedLocally(t *testing.T) {
	baseURL := startBackend(t)
	alice, aliceOut := signedInApp(t, baseURL, "alice")
	bob, _ := signedInApp(t, baseURL, "bob")

	id := createPost(t, alice, aliceOut, "Alice's post")

	err := rootCommand(bob).Execute([]string{"posts", "delete", strconv.Itoa(id)}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, models.IsForbidden(err))
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Zero(t, appErr.Status, "the refusal should come from the client, not a 403")
	assert.Equal(t, "You can only delete your own posts", models.UserMessage(err, ""))

	assert.Nil(t, bob.client.Mutations.LastFailure())
	assert.Equal(t, service.StateIdle, bob.client.Mutations.State(service.MutationDelete))

	post, err := alice.client.Posts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Alice's post", post.Title)
}

func TestPostsDelete_OwnerAndAdminMayDelete(t *testing.T) {
	baseURL := startBackend(t)
	alice, aliceOut := signedInApp(t, baseURL, "alice")
	admin, adminOut := signedInApp(t, baseURL, "admin")

	own := createPost(t, alice, aliceOut, "Mine")
	run(t, alice, "posts", "delete", strconv.Itoa(own))
	assert.Contains(t, aliceOut.String(), "Deleted post "+strconv.Itoa(own))

	other := createPost(t, alice, aliceOut, "Moderated")
	run(t, admin, "posts", "delete", strconv.Itoa(other))
	assert.Contains(t, adminOut.String(), "Deleted post "+strconv.Itoa(other))
}

func TestPostsDelete_BackendFailureShowsFormBanner(t *testing.T) {
	baseURL := startBackend(t)
	alice, aliceOut := signedInApp(t, baseURL, "alice")
	admin, _ := signedInApp(t, baseURL, "admin")

	id := createPost(t, alice, aliceOut, "Doomed")
	// Alice's client caches the post, so her permission check still passes
	// after the admin removes it.
	run(t, alice, "posts", "show", strconv.Itoa(id))
	run(t, admin, "posts", "delete", strconv.Itoa(id))

	err := rootCommand(alice).Execute([]string{"posts", "delete", strconv.Itoa(id)}, &bytes.Buffer{})
	require.Error(t, err)

	var fe *formError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, service.MutationDelete, fe.failure.Kind)
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, "Failed to delete post.", alice.client.Mutations.ErrorMessage())

	banner := errorBanner(err)
	assert.Contains(t, banner, "error:")
	assert.Contains(t, banner, "Failed to delete post.")
}

func TestPostsEdit_OtherAuthorsPostIsRefused(t *testing.T) {
	baseURL := startBackend(t)
	alice, aliceOut := signedInApp(t, baseURL, "alice")
	bob, _ := signedInApp(t, baseURL, "bob")

	id := createPost(t, alice, aliceOut, "Not yours")
	err := rootCommand(bob).Execute([]string{"posts", "edit", strconv.Itoa(id), "--title", "Taken"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "You can only edit your own posts", models.UserMessage(err, ""))
	assert.Nil(t, bob.client.Mutations.LastFailure())
}

func TestErrorBanner_MutationFailure(t *testing.T) {
	tests := []struct {
		name    string
		failure service.Failure
		want    []string
	}{
		{
			name: "transient",
			failure: service.Failure{
				Kind: service.MutationCreate, Message: "Failed to add post.",
				Severity: models.SeverityTransient, Err: models.NewNetworkError(errors.New("connection refused")),
			},
			want: []string{"retry later:", "Failed to add post.", models.NetworkErrorMessage},
		},
		{
			name: "rejected",
			failure: service.Failure{
				Kind: service.MutationUpdate, Message: "Failed to update post.",
				Severity: models.SeverityRejected, Err: models.NewForbiddenError(403, "You can only edit your own posts"),
			},
			want: []string{"error:", "Failed to update post.", "You can only edit your own posts"},
		},
		{
			name: "foreign cause",
			failure: service.Failure{
				Kind: service.MutationDelete, Message: "Failed to delete post.",
				Severity: models.SeverityRejected, Err: errors.New("boom"),
			},
			want: []string{"error:", "Failed to delete post."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorBanner(&formError{failure: tt.failure})
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
