package database

import (
	"context"
	"testing"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SqliteMemory(t *testing.T) {
	db, err := Connect("sqlite", ":memory:", observability.Discard())
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	user := UserRecord{ID: "u-1", Username: "ann", DisplayName: "Ann", PasswordHash: "x", Role: "User"}
	require.NoError(t, db.Create(&user).Error)

	now := time.Now().UTC()
	post := PostRecord{Title: "t", Content: "c", AuthorID: user.ID, CreatedDate: now, LastModifiedDate: now}
	require.NoError(t, db.Create(&post).Error)
	assert.Equal(t, 1, post.ID)

	var loaded PostRecord
	require.NoError(t, db.Preload("Author").First(&loaded, post.ID).Error)
	assert.Equal(t, "Ann", loaded.Author.DisplayName)
}

func TestConnect_UniqueUsername(t *testing.T) {
	db, err := Connect("sqlite", ":memory:", observability.Discard())
	require.NoError(t, err)

	require.NoError(t, db.Create(&UserRecord{ID: "a", Username: "ann", DisplayName: "Ann", PasswordHash: "x"}).Error)
	assert.Error(t, db.Create(&UserRecord{ID: "b", Username: "ann", DisplayName: "Other", PasswordHash: "y"}).Error)
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "dsn", observability.Discard())
	assert.ErrorContains(t, err, "unsupported database driver")
}
