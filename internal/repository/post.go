package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// PostRepository defines the operations on the posts resource.
type PostRepository interface {
	List(ctx context.Context) ([]models.PostPreview, error)
	Get(ctx context.Context, id int) (*models.Post, error)
	Create(ctx context.Context, post models.NewPost) (*models.Post, error)
	Update(ctx context.Context, post models.Post) (*models.Post, error)
	Delete(ctx context.Context, id int) error
}

// postRepository implements PostRepository over the REST API.
type postRepository struct {
	api    API
	logger *slog.Logger
}

// NewPostRepository creates a new post repository.
func NewPostRepository(api API, logger *slog.Logger) PostRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postRepository{api: api, logger: logger}
}

func postPath(id int) string {
	return fmt.Sprintf("/posts/%d", id)
}

func checkID(id int) error {
	if id <= 0 {
		return models.NewValidationError(fmt.Sprintf("invalid post id %d", id))
	}
	return nil
}

func (r *postRepository) List(ctx context.Context) ([]models.PostPreview, error) {
	var posts []models.PostPreview
	if err := r.api.Get(ctx, "/posts", &posts); err != nil {
		return nil, translate(err, nil, target{resource: "posts", fallback: "Failed to fetch posts"})
	}
	if posts == nil {
		posts = []models.PostPreview{}
	}
	return posts, nil
}

func (r *postRepository) Get(ctx context.Context, id int) (*models.Post, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var post models.Post
	if err := r.api.Get(ctx, postPath(id), &post); err != nil {
		return nil, translate(err, readStatuses, target{resource: "post", id: id, fallback: "Failed to fetch post"})
	}
	r.checkTimestamps(ctx, &post)
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, in models.NewPost) (*models.Post, error) {
	var post models.Post
	if err := r.api.Post(ctx, "/posts", in, &post); err != nil {
		return nil, translate(err, createStatuses, target{resource: "post", fallback: "Failed to add post"})
	}
	r.checkTimestamps(ctx, &post)
	return &post, nil
}

// Update replaces the whole record. The backend recomputes LastModifiedDate
// and ignores the timestamps sent here.
func (r *postRepository) Update(ctx context.Context, in models.Post) (*models.Post, error) {
	if err := checkID(in.ID); err != nil {
		return nil, err
	}
	var post models.Post
	if err := r.api.Put(ctx, postPath(in.ID), in, &post); err != nil {
		return nil, translate(err, writeStatuses, target{resource: "post", id: in.ID, fallback: "Failed to update post"})
	}
	// Some backends answer 204; the caller still gets the record it sent.
	if post.ID == 0 {
		post = in
	}
	r.checkTimestamps(ctx, &post)
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id int) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := r.api.Delete(ctx, postPath(id)); err != nil {
		return translate(err, writeStatuses, target{resource: "post", id: id, fallback: "Failed to delete post"})
	}
	return nil
}

func (r *postRepository) checkTimestamps(ctx context.Context, post *models.Post) {
	if !post.TimestampsOrdered() {
		r.logger.WarnContext(ctx, "post modified before it was created",
			slog.Int("post_id", post.ID),
			slog.String("created", post.CreatedDate.String()),
			slog.String("last_modified", post.LastModifiedDate.String()),
		)
	}
}
