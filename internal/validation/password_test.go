package validation

import (
	"testing"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "Abc12!", false},
		{"Long Valid", "SecurePass12!@", false},
		{"Too Short", "Ab1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Space Counts As Special", "Abc 12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordProblems_ListsEveryFailure(t *testing.T) {
	t.Parallel()
	problems := PasswordProblems("abc")
	assert.Equal(t, []string{
		"Password must be at least 6 characters long",
		"Password must contain at least one uppercase letter",
		"Password must contain at least one digit",
		"Password must contain at least one special character",
	}, problems)

	assert.Empty(t, PasswordProblems("Abc12!"))
}

func TestValidateRegistration(t *testing.T) {
	t.Parallel()
	valid := models.RegisterRequest{Username: "alice", DisplayName: "Alice", Password: "Abc12!", ConfirmPassword: "Abc12!"}

	tests := []struct {
		name    string
		mutate  func(*models.RegisterRequest)
		wantMsg string
	}{
		{"Valid", func(*models.RegisterRequest) {}, ""},
		{"Blank Username", func(r *models.RegisterRequest) { r.Username = "   " }, "Username cannot be empty or contain spaces."},
		{"Username With Space", func(r *models.RegisterRequest) { r.Username = "al ice" }, "Username cannot be empty or contain spaces."},
		{"Blank Display Name", func(r *models.RegisterRequest) { r.DisplayName = "" }, "Display name cannot be empty."},
		{"Weak Password", func(r *models.RegisterRequest) { r.Password = "abcdef"; r.ConfirmPassword = "abcdef" }, "Password must contain at least one uppercase letter. Password must contain at least one digit. Password must contain at least one special character"},
		{"Mismatch", func(r *models.RegisterRequest) { r.ConfirmPassword = "Xyz12!" }, "Passwords do not match."},
		{"Trailing Space Ignored", func(r *models.RegisterRequest) { r.ConfirmPassword = "Abc12! " }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateRegistration(req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.IsValidation(err))
			assert.Equal(t, tt.wantMsg, models.UserMessage(err, ""))
		})
	}
}

func TestValidateProfile(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateProfile(models.ProfileUpdate{Username: "alice", DisplayName: "Alice"}))
	assert.NoError(t, ValidateProfile(models.ProfileUpdate{Username: "alice", DisplayName: "Alice", Password: "Abc12!", ConfirmPassword: "Abc12!"}))

	err := ValidateProfile(models.ProfileUpdate{Username: "alice", DisplayName: "Alice", Password: "Abc12!"})
	assert.True(t, models.IsValidation(err))

	err = ValidateProfile(models.ProfileUpdate{Username: "alice", DisplayName: "Alice", Password: "abc", ConfirmPassword: "abc"})
	assert.True(t, models.IsValidation(err))

	err = ValidateProfile(models.ProfileUpdate{Username: "", DisplayName: "Alice"})
	assert.True(t, models.IsValidation(err))
}

func TestValidatePostFormAndNewUser(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostForm("Title", "Body"))
	assert.True(t, models.IsValidation(ValidatePostForm(" ", "Body")))
	assert.True(t, models.IsValidation(ValidatePostForm("Title", "")))

	assert.NoError(t, ValidateNewUser(models.CreateUserInput{Username: "bob", DisplayName: "Bob", Password: "x"}))
	assert.True(t, models.IsValidation(ValidateNewUser(models.CreateUserInput{Username: "bob", DisplayName: "Bob"})))
}
