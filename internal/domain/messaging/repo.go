package messaging

import (
	"context"
	"errors"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")
)

// Repository is the persistence contract for the message store.
type Repository interface {
	Insert(ctx context.Context, m *Message) error
	// History returns every message between the two identities, both
	// directions, oldest first.
	History(ctx context.Context, a, b string) ([]Message, error)
	// MarkRead flips unread sender→receiver messages to read. Returns the
	// number of rows changed; zero is not an error.
	MarkRead(ctx context.Context, sender, receiver string) (int64, error)
}
