package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("notification not found")
	ErrForbidden  = errors.New("notification belongs to another doctor")
	ErrValidation = errors.New("validation failed")
)

// Repository is the persistence contract for the notification feed.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	// ListForDoctor returns the doctor's newest notifications, capped to
	// limit. The log itself is unbounded; the cap applies on read.
	ListForDoctor(ctx context.Context, doctorEmail string, limit int) ([]Notification, error)
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}
