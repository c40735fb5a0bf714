package devserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts, newest first.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	var records []database.PostRecord
	err := s.db.WithContext(c.UserContext()).
		Preload("Author").
		Order("created_date DESC").Order("id DESC").
		Find(&records).Error
	if err != nil {
		return err
	}

	out := make([]models.PostPreview, 0, len(records))
	for _, r := range records {
		out = append(out, toPreview(r))
	}
	return c.JSON(out)
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, ok := parsePostID(c)
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	post, err := s.findPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	if post == nil {
		return respondError(c, fiber.StatusNotFound, "Post not found")
	}
	return c.JSON(toPost(*post))
}

// CreatePost handles POST /api/posts. The author is always the caller,
// whatever the body says.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req models.NewPost
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidatePostForm(req.Title, req.Content); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.UserMessage(err, "Invalid post"))
	}

	author, err := s.currentUser(c)
	if err != nil {
		return err
	}
	if author == nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	now := nextModified(time.Time{})
	record := database.PostRecord{
		Title:            strings.TrimSpace(req.Title),
		Content:          req.Content,
		AuthorID:         author.ID,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := s.db.WithContext(c.UserContext()).Omit("Author").Create(&record).Error; err != nil {
		return err
	}
	record.Author = *author

	s.logger.InfoContext(c.UserContext(), "post created", slog.Int("post_id", record.ID))
	return c.Status(fiber.StatusCreated).JSON(toPost(record))
}

// UpdatePost handles PUT /api/posts/:id. The body is a full post; only
// title and content are taken from it.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, ok := parsePostID(c)
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	var req models.Post
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ID != 0 && req.ID != id {
		return respondError(c, fiber.StatusBadRequest, "Post ID does not match the URL")
	}
	if err := validation.ValidatePostForm(req.Title, req.Content); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.UserMessage(err, "Invalid post"))
	}

	post, err := s.findPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	if post == nil {
		return respondError(c, fiber.StatusNotFound, "Post not found")
	}
	if allowed, err := s.canModify(c, post); err != nil {
		return err
	} else if !allowed {
		return respondError(c, fiber.StatusForbidden, "You can only edit your own posts")
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Content = req.Content
	post.LastModifiedDate = nextModified(post.LastModifiedDate)
	err = s.db.WithContext(c.UserContext()).Model(&database.PostRecord{}).Where("id = ?", post.ID).
		Updates(map[string]any{
			"title":              post.Title,
			"content":            post.Content,
			"last_modified_date": post.LastModifiedDate,
		}).Error
	if err != nil {
		return err
	}
	return c.JSON(toPost(*post))
}

// DeletePost handles DELETE /api/posts/:id. Deleting a missing post is a
// 404, so a repeated delete never reports success.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, ok := parsePostID(c)
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	post, err := s.findPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	if post == nil {
		return respondError(c, fiber.StatusNotFound, "Post not found")
	}
	if allowed, err := s.canModify(c, post); err != nil {
		return err
	} else if !allowed {
		return respondError(c, fiber.StatusForbidden, "You can only delete your own posts")
	}

	res := s.db.WithContext(c.UserContext()).Delete(&database.PostRecord{}, post.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return respondError(c, fiber.StatusNotFound, "Post not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// canModify reports whether the caller wrote post or is an admin.
func (s *Server) canModify(c *fiber.Ctx, post *database.PostRecord) (bool, error) {
	user, err := s.currentUser(c)
	if err != nil || user == nil {
		return false, err
	}
	return user.ID == post.AuthorID || user.Role == models.RoleAdmin, nil
}
