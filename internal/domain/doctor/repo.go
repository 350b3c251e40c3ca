package doctor

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("doctor not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrValidation = errors.New("validation failed")
)

// Repository is the persistence contract for doctors and the assignment
// mirror.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	// SearchByName returns the first doctor whose name matches,
	// case-insensitively.
	SearchByName(ctx context.Context, name string) (*Doctor, error)
	// UpsertAssignment replaces any existing mirror row for the pair with
	// a fresh active one.
	UpsertAssignment(ctx context.Context, doctorEmail, patientEmail string) error
	ListAssignedPatients(ctx context.Context, doctorEmail string) ([]AssignedPatient, error)
}
