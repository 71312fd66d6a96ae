package auth

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidEmail reports whether the address is plausibly deliverable.
func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// ValidateName checks the display name is 2-50 characters after trimming.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 50 {
		return errors.New("Name must be between 2 and 50 characters")
	}
	return nil
}

// ValidatePassword enforces the strength rule: at least 8 characters
// with a letter, a digit and a symbol.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return errors.New("Password must be at least 8 characters long")
	}
	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasLetter || !hasDigit || !hasSymbol {
		return errors.New("Password must contain a letter, a number, and a symbol")
	}
	return nil
}
