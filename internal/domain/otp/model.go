// Package otp issues and verifies the one-time codes emailed during
// signup. Codes live ten minutes, expiry is checked lazily at verification
// time, and only the most recent code for an email counts.
package otp

import (
	"time"

	"github.com/google/uuid"
)

// Code is a single issued verification code.
type Code struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Code      string    `db:"code" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
