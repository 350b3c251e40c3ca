package access

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyAuthorized = errors.New("doctor already authorized")
	ErrValidation        = errors.New("validation failed")
)

// Repository is the persistence contract for the grant ledger.
type Repository interface {
	Insert(ctx context.Context, g *Grant) error
	// Delete removes the grant for the pair and reports whether a row
	// existed. A missing grant is not an error.
	Delete(ctx context.Context, patientEmail, doctorEmail string) (bool, error)
	Exists(ctx context.Context, patientEmail, doctorEmail string) (bool, error)
	// ListForPatient returns the patient's grants, oldest first.
	ListForPatient(ctx context.Context, patientEmail string) ([]Grant, error)
	// ListPatientsForDoctor returns the patients who granted this doctor,
	// newest grant first.
	ListPatientsForDoctor(ctx context.Context, doctorEmail string) ([]PatientRef, error)
}
