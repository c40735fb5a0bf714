package devserver

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/middleware"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// previewRunes is the length of the content preview served by GET /posts.
const previewRunes = 150

// respondError writes the {message} body every non-2xx response carries.
func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// parsePostID validates the :id route parameter.
func parsePostID(c *fiber.Ctx) (int, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return strings.TrimRightFunc(string(runes[:previewRunes]), func(r rune) bool { return r == ' ' || r == '\n' }) + "..."
}

// nextModified returns a modification time strictly after prev, at the
// microsecond precision every supported database keeps.
func nextModified(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func toPost(r database.PostRecord) models.Post {
	return models.Post{
		ID:               r.ID,
		Title:            r.Title,
		Author:           r.Author.DisplayName,
		AuthorID:         r.AuthorID,
		Content:          r.Content,
		CreatedDate:      models.NewTimestamp(r.CreatedDate),
		LastModifiedDate: models.NewTimestamp(r.LastModifiedDate),
	}
}

func toPreview(r database.PostRecord) models.PostPreview {
	return models.PostPreview{
		ID:               r.ID,
		Title:            r.Title,
		Author:           r.Author.DisplayName,
		ContentPreview:   preview(r.Content),
		CreatedDate:      models.NewTimestamp(r.CreatedDate),
		LastModifiedDate: models.NewTimestamp(r.LastModifiedDate),
	}
}

func toIdentity(u database.UserRecord) models.Identity {
	return models.Identity{ID: u.ID, UserName: u.Username, DisplayName: u.DisplayName, Roles: []string{u.Role}}
}

func toAccount(u database.UserRecord) models.UserAccount {
	return models.UserAccount{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
}

// findUser loads a user by id. A missing row is reported as (nil, nil).
func (s *Server) findUser(ctx context.Context, id string) (*database.UserRecord, error) {
	var u database.UserRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// findUserByName looks a user up case-insensitively.
func (s *Server) findUserByName(ctx context.Context, username string) (*database.UserRecord, error) {
	var u database.UserRecord
	err := s.db.WithContext(ctx).Where("LOWER(username) = ?", strings.ToLower(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// usernameTaken reports whether another account already uses username.
func (s *Server) usernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	u, err := s.findUserByName(ctx, username)
	if err != nil {
		return false, err
	}
	return u != nil && u.ID != exceptID, nil
}

// findPost loads a post with its author. A missing row is (nil, nil).
func (s *Server) findPost(ctx context.Context, id int) (*database.PostRecord, error) {
	var p database.PostRecord
	err := s.db.WithContext(ctx).Preload("Author").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// currentUser loads the authenticated caller, or nil when the session
// points at an account that no longer exists.
func (s *Server) currentUser(c *fiber.Ctx) (*database.UserRecord, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return nil, nil
	}
	return s.findUser(c.UserContext(), id)
}
