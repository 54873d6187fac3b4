package auth

import (
	"regexp"
	"strings"
	"unicode"
)

// emailPattern is deliberately loose: local@domain.tld shape, nothing more.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateRegistration checks a registration request and returns a
// ValidationError naming the first unmet rule, or nil.
func ValidateRegistration(r Registration) error {
	if strings.TrimSpace(r.FirstName) == "" {
		return &ValidationError{Field: "firstName", Message: "first name is required"}
	}
	if strings.TrimSpace(r.LastName) == "" {
		return &ValidationError{Field: "lastName", Message: "last name is required"}
	}
	if strings.TrimSpace(r.Email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		return &ValidationError{Field: "email", Message: "please enter a valid email address"}
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.ConfirmPassword != r.Password {
		return &ValidationError{Field: "confirmPassword", Message: "passwords do not match"}
	}
	return nil
}

// ValidatePassword enforces the account password policy: at least 8
// characters with lowercase, uppercase, digit, and special character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "password must be at least 8 characters long"}
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return &ValidationError{
			Field:   "password",
			Message: "password must contain uppercase, lowercase, number, and special character",
		}
	}
	return nil
}
