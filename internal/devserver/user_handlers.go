package devserver

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/middleware"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired rejects everyone who is not an admin with 403, anonymous
// callers included. It must run after Sessions.Optional.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.currentUser(c)
		if err != nil {
			return err
		}
		if user == nil || user.Role != models.RoleAdmin {
			return respondError(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

// ListUsers handles GET /api/Auth/getall.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	var users []database.UserRecord
	if err := s.db.WithContext(c.UserContext()).Order("username").Find(&users).Error; err != nil {
		return err
	}
	out := make([]models.UserAccount, 0, len(users))
	for _, u := range users {
		out = append(out, toAccount(u))
	}
	return c.JSON(out)
}

// CreateUser handles POST /api/Auth/create.
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req models.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateNewUser(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.UserMessage(err, "Failed to create user"))
	}

	role := models.RoleUser
	if s.opts.HonorCreateRole {
		role = req.Role()
	}
	account, status, msg, err := s.createAccount(c, strings.TrimSpace(req.Username), strings.TrimSpace(req.DisplayName), req.Password, role)
	if err != nil {
		return err
	}
	if status != 0 {
		return respondError(c, status, msg)
	}
	return c.Status(fiber.StatusCreated).JSON(toAccount(*account))
}

// UpdateUser handles PUT /api/Auth/:id.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var req models.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	username := strings.TrimSpace(req.Username)
	displayName := strings.TrimSpace(req.DisplayName)
	if username == "" || displayName == "" {
		return respondError(c, fiber.StatusBadRequest, "Username and display name are required")
	}

	user, err := s.findUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if user == nil {
		return respondError(c, fiber.StatusNotFound, "User not found")
	}
	taken, err := s.usernameTaken(c.UserContext(), username, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return respondError(c, fiber.StatusConflict, "Username is already taken.")
	}

	err = s.db.WithContext(c.UserContext()).Model(&database.UserRecord{}).Where("id = ?", user.ID).
		Updates(map[string]any{"username": username, "display_name": displayName}).Error
	if err != nil {
		return err
	}
	user.Username = username
	user.DisplayName = displayName
	return c.JSON(toAccount(*user))
}

// SetUserRole handles PUT /api/Auth/:id/role.
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	var req models.RoleAssignment
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if !models.ValidRole(req.Role) {
		return respondError(c, fiber.StatusBadRequest, "Role must be User or Admin")
	}

	user, err := s.findUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if user == nil {
		return respondError(c, fiber.StatusNotFound, "User not found")
	}
	if err := s.db.WithContext(c.UserContext()).Model(&database.UserRecord{}).Where("id = ?", user.ID).Update("role", req.Role).Error; err != nil {
		return err
	}

	s.logger.InfoContext(c.UserContext(), "role changed",
		slog.String("account_id", user.ID),
		slog.String("role", req.Role),
	)
	user.Role = req.Role
	return c.JSON(toAccount(*user))
}

// DeleteUser handles DELETE /api/Auth/:id. Admins cannot delete themselves.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if self, _ := middleware.UserID(c); self == id {
		return respondError(c, fiber.StatusBadRequest, "You cannot delete your own account")
	}

	err := s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", id).Delete(&database.PostRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&database.UserRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errUserNotFound
		}
		return nil
	})
	if errors.Is(err, errUserNotFound) {
		return respondError(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

var errUserNotFound = errors.New("user not found")
