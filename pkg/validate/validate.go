// Package validate checks and cleans account form input.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxEmailLength       = 254
	MinPasswordLength    = 6
	MaxPasswordLength    = 128
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 50
	MaxInputLength       = 200
)

var (
	ErrEmailRequired       = errors.New("email is required")
	ErrEmailInvalid        = errors.New("invalid email address")
	ErrEmailTooLong        = errors.New("email is too long")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong     = errors.New("password is too long")
	ErrDisplayNameRequired = errors.New("display name is required")
	ErrDisplayNameShort    = fmt.Errorf("display name must be at least %d characters", MinDisplayNameLength)
	ErrDisplayNameLong     = fmt.Errorf("display name must be less than %d characters", MaxDisplayNameLength)
)

var inputMessages = []struct {
	err     error
	message string
}{
	{ErrEmailRequired, "Email is required."},
	{ErrEmailInvalid, "Please enter a valid email address."},
	{ErrEmailTooLong, "Email is too long."},
	{ErrPasswordRequired, "Password is required."},
	{ErrPasswordTooShort, fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength)},
	{ErrPasswordTooLong, "Password is too long."},
	{ErrDisplayNameRequired, "Display name is required."},
	{ErrDisplayNameShort, fmt.Sprintf("Display name must be at least %d characters long.", MinDisplayNameLength)},
	{ErrDisplayNameLong, fmt.Sprintf("Display name must be less than %d characters.", MaxDisplayNameLength)},
}

// IsInputError reports whether err wraps one of the form validation errors.
func IsInputError(err error) bool {
	for _, m := range inputMessages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email trims and lowercases email and checks its shape.
func Email(email string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if !reEmail.MatchString(cleaned) {
		return "", ErrEmailInvalid
	}
	if len(cleaned) > MaxEmailLength {
		return "", ErrEmailTooLong
	}
	return cleaned, nil
}

// Password checks length bounds only.
func Password(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if n > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// DisplayName trims, length-checks and sanitizes name.
func DisplayName(name string) (string, error) {
	if name == "" {
		return "", ErrDisplayNameRequired
	}
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < MinDisplayNameLength {
		return "", ErrDisplayNameShort
	}
	if n > MaxDisplayNameLength {
		return "", ErrDisplayNameLong
	}
	return Sanitize(trimmed), nil
}

// Sanitize trims input, strips angle brackets and caps its length.
func Sanitize(input string) string {
	s := strings.TrimSpace(input)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	if utf8.RuneCountInString(s) > MaxInputLength {
		s = string([]rune(s)[:MaxInputLength])
	}
	return s
}

var friendlyMessages = []struct {
	code    string
	message string
}{
	{"auth/email-already-in-use", "This email is already registered. Please sign in instead."},
	{"auth/invalid-email", "Please enter a valid email address."},
	{"auth/weak-password", "Password is too weak. Please choose a stronger password."},
	{"auth/user-not-found", "No account found with this email address."},
	{"auth/wrong-password", "Incorrect password. Please try again."},
	{"auth/invalid-credential", "Invalid email or password. Please check your credentials and try again."},
	{"auth/invalid-login-credentials", "Invalid email or password. Please check your credentials and try again."},
	{"auth/too-many-requests", "Too many failed attempts. Please try again later."},
	{"auth/network-request-failed", "Network error. Please check your connection and try again."},
	{"auth/user-disabled", "This account has been disabled. Please contact support."},
	{"auth/operation-not-allowed", "This sign-in method is not enabled."},
	{"permission-denied", "You do not have permission to perform this action."},
	{"unavailable", "Service is temporarily unavailable. Please try again later."},
}

const (
	msgUnexpected = "An unexpected error occurred. Please try again."
	msgDefault    = "Invalid email or password. Please check your credentials and try again."
)

// CodedError carries a machine-readable error code.
type CodedError interface {
	error
	Code() string
}

// FriendlyError maps err to a message suitable for showing to a user.
// Validation errors come first, then codes matched exactly, then codes found
// in the error text.
func FriendlyError(err error) string {
	if err == nil {
		return msgUnexpected
	}

	for _, m := range inputMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}

	var coded CodedError
	if errors.As(err, &coded) {
		for _, m := range friendlyMessages {
			if coded.Code() == m.code {
				return m.message
			}
		}
	}

	text := err.Error()
	for _, m := range friendlyMessages {
		if strings.Contains(text, m.code) {
			return m.message
		}
	}
	return msgDefault
}
