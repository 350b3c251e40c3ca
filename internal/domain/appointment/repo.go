package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrSlotTaken         = errors.New("doctor already booked that day")
	ErrForbidden         = errors.New("appointment belongs to another doctor")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

// Repository is the persistence contract for appointments.
type Repository interface {
	Insert(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ExistsOnDay reports whether the doctor has a non-cancelled
	// appointment anywhere inside the day containing at.
	ExistsOnDay(ctx context.Context, doctorEmail string, at time.Time) (bool, error)
	// ListForPatient returns the patient's appointments, newest first.
	ListForPatient(ctx context.Context, patientEmail string) ([]Appointment, error)
	// ListForDoctor returns the doctor's appointments, newest first.
	ListForDoctor(ctx context.Context, doctorEmail string) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
