// Package validation implements the form checks run before anything is sent
// to the backend.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the backend accepts.
const MinPasswordLength = 6

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// PasswordProblems lists every rule the password breaks, in a stable order.
func PasswordProblems(password string) []string {
	var problems []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, "Password must be at least 6 characters long")
	}
	if !lowerRe.MatchString(password) {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !upperRe.MatchString(password) {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !digitRe.MatchString(password) {
		problems = append(problems, "Password must contain at least one digit")
	}
	if !specialRe.MatchString(password) {
		problems = append(problems, "Password must contain at least one special character")
	}

	return problems
}

// ValidatePassword checks if a password meets the strength requirements.
func ValidatePassword(password string) error {
	problems := PasswordProblems(password)
	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, ". "))
}
