// Package seed creates demo accounts and posts for the reference backend.
// It is meant for local development and tests only.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls what Run creates.
type Options struct {
	AdminUsername string
	AdminPassword string
	Authors       int
	Posts         int
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// DefaultAuthorPassword is the password of every generated author.
const DefaultAuthorPassword = "Author#123"

// Result reports what Run created.
type Result struct {
	Admin   *database.UserRecord
	Authors []database.UserRecord
	Posts   int
}

// HashPassword hashes a password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// EnsureAdmin creates the bootstrap admin account unless a user with that
// name already exists. An existing account is promoted to Admin.
func EnsureAdmin(ctx context.Context, db *gorm.DB, username, password string) (*database.UserRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("admin username and password are required")
	}

	var existing database.UserRecord
	err := db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := db.WithContext(ctx).Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
				return nil, fmt.Errorf("promote admin: %w", err)
			}
			existing.Role = models.RoleAdmin
		}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := database.UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return &admin, nil
}

// Run bootstraps the admin account and, when the posts table is empty,
// fills it with generated authors and posts.
func Run(ctx context.Context, db *gorm.DB, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	faker := gofakeit.New(opts.Seed)

	admin, err := EnsureAdmin(ctx, db, opts.AdminUsername, opts.AdminPassword)
	if err != nil {
		return nil, err
	}
	res := &Result{Admin: admin}

	var count int64
	if err := db.WithContext(ctx).Model(&database.PostRecord{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if count > 0 || opts.Posts <= 0 {
		logger.Info("Skipping post seed", slog.Int64("existing_posts", count))
		return res, nil
	}

	hash, err := HashPassword(DefaultAuthorPassword)
	if err != nil {
		return nil, err
	}
	authors := opts.Authors
	if authors <= 0 {
		authors = 3
	}
	for i := 0; i < authors; i++ {
		first := faker.FirstName()
		u := database.UserRecord{
			ID:           uuid.NewString(),
			Username:     fmt.Sprintf("%s%d", strings.ToLower(faker.Username()), i),
			DisplayName:  first + " " + faker.LastName(),
			PasswordHash: hash,
			Role:         models.RoleUser,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, fmt.Errorf("create author: %w", err)
		}
		res.Authors = append(res.Authors, u)
	}

	posts := make([]database.PostRecord, 0, opts.Posts)
	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < opts.Posts; i++ {
		created := now.Add(-time.Duration(faker.Number(1, 90*24)) * time.Hour)
		modified := created
		if faker.Bool() {
			modified = created.Add(time.Duration(faker.Number(1, 48)) * time.Hour)
		}
		posts = append(posts, database.PostRecord{
			Title:            strings.TrimSuffix(faker.Sentence(faker.Number(3, 7)), "."),
			Content:          faker.Paragraph(faker.Number(1, 3), faker.Number(2, 5), faker.Number(6, 14), "\n\n"),
			AuthorID:         res.Authors[i%len(res.Authors)].ID,
			CreatedDate:      created,
			LastModifiedDate: modified,
		})
	}
	if err := db.WithContext(ctx).Omit("Author").CreateInBatches(&posts, 50).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	logger.Info("Seeded demo content",
		slog.Int("authors", len(res.Authors)),
		slog.Int("posts", res.Posts),
	)
	return res, nil
}
