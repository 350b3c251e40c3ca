package otp

import (
	"context"
	"errors"
)

var (
	ErrCodeInvalid = errors.New("invalid verification code")
	ErrCodeExpired = errors.New("verification code expired")
	ErrRateLimited = errors.New("verification code requested too soon")
	ErrEmailTaken  = errors.New("account already exists for this email")
	ErrValidation  = errors.New("validation failed")
)

// Repository is the persistence contract for issued codes.
type Repository interface {
	Create(ctx context.Context, c *Code) error
	// Latest returns the most recently issued code for the email, or
	// ErrCodeInvalid when none exists.
	Latest(ctx context.Context, email string) (*Code, error)
	DeleteForEmail(ctx context.Context, email string) error
}
