package devserver

import (
	"log/slog"
	"strings"

	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/seed"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login handles POST /api/auth/login. On success the session cookie is set
// and the identity is returned as {user}.
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return respondError(c, fiber.StatusBadRequest, "Username and password are required")
	}

	user, err := s.findUserByName(c.UserContext(), strings.TrimSpace(req.Username))
	if err != nil {
		return err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.InfoContext(c.UserContext(), "login rejected", slog.String("username", req.Username))
		return respondError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return err
	}
	s.sessions.SetCookie(c, token)

	identity := toIdentity(*user)
	return c.JSON(models.LoginResponse{User: &identity})
}

// Register handles POST /api/auth/register. It does not sign the new
// account in.
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateRegistration(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.UserMessage(err, "Registration failed."))
	}

	account, status, msg, err := s.createAccount(c, strings.TrimSpace(req.Username), strings.TrimSpace(req.DisplayName), req.Password, models.RoleUser)
	if err != nil {
		return err
	}
	if status != 0 {
		return respondError(c, status, msg)
	}
	return c.Status(fiber.StatusCreated).JSON(toAccount(*account))
}

// createAccount stores a new user. A non-zero status reports a rejection
// the caller should relay.
func (s *Server) createAccount(c *fiber.Ctx, username, displayName, password, role string) (*database.UserRecord, int, string, error) {
	taken, err := s.usernameTaken(c.UserContext(), username, "")
	if err != nil {
		return nil, 0, "", err
	}
	if taken {
		return nil, fiber.StatusConflict, "Username is already taken.", nil
	}

	hash, err := seed.HashPassword(password)
	if err != nil {
		return nil, 0, "", err
	}
	user := database.UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return nil, 0, "", err
	}
	s.logger.InfoContext(c.UserContext(), "account created",
		slog.String("account_id", user.ID),
		slog.String("role", role),
	)
	return &user, 0, "", nil
}

// Logout handles POST /api/auth/logout. It succeeds with or without a
// session.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Revoke(c); err != nil {
		s.logger.WarnContext(c.UserContext(), "failed to revoke session", slog.String("error", err.Error()))
	}
	s.sessions.ClearCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/Auth/me.
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		s.sessions.ClearCookie(c)
		return respondError(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(toIdentity(*user))
}

// EditProfile handles PUT /api/auth/editprofile. An empty password keeps
// the current one.
func (s *Server) EditProfile(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateProfile(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.UserMessage(err, "Failed to update profile"))
	}

	user, err := s.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	username := strings.TrimSpace(req.Username)
	taken, err := s.usernameTaken(c.UserContext(), username, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return respondError(c, fiber.StatusConflict, "Username is already taken.")
	}

	updates := map[string]any{
		"username":     username,
		"display_name": strings.TrimSpace(req.DisplayName),
	}
	if req.Password != "" {
		hash, err := seed.HashPassword(req.Password)
		if err != nil {
			return err
		}
		updates["password_hash"] = hash
	}
	if err := s.db.WithContext(c.UserContext()).Model(&database.UserRecord{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return err
	}

	user.Username = username
	user.DisplayName = strings.TrimSpace(req.DisplayName)
	return c.JSON(toIdentity(*user))
}

// UserInfo handles GET /api/Auth/:id, the public display record of a user.
func (s *Server) UserInfo(c *fiber.Ctx) error {
	user, err := s.findUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if user == nil {
		return respondError(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(models.UserInfo{ID: user.ID, UserName: user.Username, DisplayName: user.DisplayName})
}
