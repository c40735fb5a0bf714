package validation

import (
	"strings"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// ValidateRegistration checks a sign-up form. Fields are compared after
// trimming because that is what gets sent.
func ValidateRegistration(req models.RegisterRequest) error {
	if username := strings.TrimSpace(req.Username); username == "" || strings.ContainsAny(username, " \t") {
		return models.NewValidationError("Username cannot be empty or contain spaces.")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return models.NewValidationError("Display name cannot be empty.")
	}
	if err := ValidatePassword(req.Password); err != nil {
		return models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(req.Password) != strings.TrimSpace(req.ConfirmPassword) {
		return models.NewValidationError("Passwords do not match.")
	}
	return nil
}

// ValidateProfile checks an edit-profile form. The password is optional; when
// either password field is set both must match and satisfy the rules.
func ValidateProfile(update models.ProfileUpdate) error {
	if strings.TrimSpace(update.Username) == "" {
		return models.NewValidationError("Username cannot be empty")
	}
	if strings.TrimSpace(update.DisplayName) == "" {
		return models.NewValidationError("Display name cannot be empty")
	}
	if update.Password == "" && update.ConfirmPassword == "" {
		return nil
	}
	if update.Password != update.ConfirmPassword {
		return models.NewValidationError("Passwords do not match")
	}
	if err := ValidatePassword(update.Password); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// ValidatePostForm checks the title and content of a post form.
func ValidatePostForm(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required.")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required.")
	}
	return nil
}

// ValidateNewUser checks the admin create-user form.
func ValidateNewUser(in models.CreateUserInput) error {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.DisplayName) == "" || in.Password == "" {
		return models.NewValidationError("Username, display name, and password are required")
	}
	return nil
}
