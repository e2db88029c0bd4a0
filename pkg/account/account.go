// Package account signs players up and in against a profile store.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/quidome/ecoquest-go/pkg/profile"
	"github.com/quidome/ecoquest-go/pkg/validate"
)

// Error is an account failure with a stable code.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg + " (" + e.code + ")" }
func (e *Error) Code() string  { return e.code }

var (
	ErrEmailInUse         = &Error{code: "auth/email-already-in-use", msg: "email already in use"}
	ErrInvalidCredentials = &Error{code: "auth/invalid-credential", msg: "invalid email or password"}
)

// Service creates and authenticates accounts.
type Service struct {
	Store profile.Store

	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to a random UUID.
	NewID func() string
	// Cost defaults to bcrypt.DefaultCost.
	Cost   int
	Logger *zap.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) cost() int {
	if s.Cost != 0 {
		return s.Cost
	}
	return bcrypt.DefaultCost
}

func (s *Service) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

// SignUp validates the input, stores a bcrypt hash of the password and creates
// a fresh profile. An empty display name falls back to the email local part.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (profile.Profile, error) {
	cleanEmail, err := validate.Email(email)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := validate.Password(password); err != nil {
		return profile.Profile{}, err
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = validate.Sanitize(strings.SplitN(cleanEmail, "@", 2)[0])
	} else if name, err = validate.DisplayName(name); err != nil {
		return profile.Profile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return profile.Profile{}, fmt.Errorf("failed to hash password: %w", err)
	}

	p := profile.New(s.newID(), cleanEmail, name, s.now())
	if err := s.Store.Create(ctx, p, string(hash)); err != nil {
		if errors.Is(err, profile.ErrEmailTaken) {
			return profile.Profile{}, ErrEmailInUse
		}
		return profile.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger().Info("account created", zap.String("user_id", p.ID))
	return p, nil
}

// SignIn returns the profile whose stored hash matches password.
func (s *Service) SignIn(ctx context.Context, email, password string) (profile.Profile, error) {
	cleanEmail, err := validate.Email(email)
	if err != nil {
		return profile.Profile{}, err
	}

	p, hash, err := s.Store.FindByEmail(ctx, cleanEmail)
	if errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.logger().Warn("sign in rejected", zap.String("user_id", p.ID))
		return profile.Profile{}, ErrInvalidCredentials
	}
	return p, nil
}
