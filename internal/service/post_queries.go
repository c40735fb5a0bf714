// Package service implements the client use cases on top of the
// repositories: cached post reads, the post mutation coordinator, the
// sign-in flows and user administration.
package service

import (
	"context"

	"github.com/RaduPandor/Blog-Web-App/internal/access"
	"github.com/RaduPandor/Blog-Web-App/internal/cache"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/repository"
)

// PostQueries serves post reads through the query cache.
type PostQueries struct {
	repo  repository.PostRepository
	cache *cache.QueryCache
}

func NewPostQueries(repo repository.PostRepository, qc *cache.QueryCache) *PostQueries {
	return &PostQueries{repo: repo, cache: qc}
}

// List returns the post previews.
func (q *PostQueries) List(ctx context.Context) ([]models.PostPreview, error) {
	return cache.Fetch(ctx, q.cache, cache.PostsListKey, q.repo.List)
}

// Get returns one post. Non-positive ids are rejected before any request.
func (q *PostQueries) Get(ctx context.Context, id int) (*models.Post, error) {
	if id <= 0 {
		return nil, models.NewValidationError("invalid post id")
	}
	return cache.Fetch(ctx, q.cache, cache.PostKey(id), func(ctx context.Context) (*models.Post, error) {
		return q.repo.Get(ctx, id)
	})
}

// PostView is a post together with what the viewer may do with it.
type PostView struct {
	Post    *models.Post
	CanEdit bool
}

// View loads a post and evaluates the viewer's edit rights.
func (q *PostQueries) View(ctx context.Context, id int, viewer *models.Identity) (*PostView, error) {
	post, err := q.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostView{Post: post, CanEdit: access.CanEditOrDelete(viewer, post)}, nil
}
