package session

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	identity, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	require.NoError(t, store.Save(ctx, stored()))
	require.NoError(t, store.SaveCookies(ctx, []*http.Cookie{
		{Name: "blog_session", Value: "abc", Path: "/"},
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileStore(path)
	identity, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)

	cookies, err := reopened.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1, "expired cookies are dropped")
	assert.Equal(t, "abc", cookies[0].Value)

	require.NoError(t, reopened.Clear(ctx))
	identity, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)
	require.NoError(t, reopened.Clear(ctx), "clearing twice is fine")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)

	// Saving replaces the corrupt document.
	require.NoError(t, NewFileStore(path).Save(context.Background(), stored()))
	identity, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "blogctl:session:", time.Hour)
	ctx := context.Background()

	identity, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	require.NoError(t, store.Save(ctx, stored()))
	require.NoError(t, store.SaveCookies(ctx, []*http.Cookie{{Name: "blog_session", Value: "abc"}}))
	assert.Equal(t, time.Hour, mr.TTL("blogctl:session:identity"))

	identity, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, identity.Roles)

	cookies, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "/", cookies[0].Path)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("blogctl:session:identity"))
	assert.False(t, mr.Exists("blogctl:session:cookies"))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, stored()))

	got, _ := store.Load(ctx)
	got.Roles[0] = models.RoleAdmin

	again, _ := store.Load(ctx)
	assert.Equal(t, models.RoleUser, again.Roles[0])
}
