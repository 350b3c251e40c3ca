package patient

import (
	"context"
	"errors"
)

// Sentinel errors surfaced by the repository and service.
var (
	ErrNotFound   = errors.New("patient not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrValidation = errors.New("validation failed")
)

// Ref is the name/email pair used in cross-entity listings.
type Ref struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Repository is the persistence contract for patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, p *Patient) error
	SetAssignedDoctor(ctx context.Context, patientEmail string, doctor DoctorRef) error
	ListByAssignedDoctor(ctx context.Context, doctorEmail string) ([]Ref, error)
}
