// Package doctor owns the doctor side of the identity store: signup,
// login, the public directory, and the care-team assignment mirror.
package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a registered practitioner. Email is unique and is the join
// key used across grants, assignments, messages and appointments.
type Doctor struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Speciality   string    `db:"speciality" json:"speciality"`
	Degree       string    `db:"degree" json:"degree"`
	Experience   string    `db:"experience" json:"experience"`
	About        string    `db:"about" json:"about"`
	Fees         float64   `db:"fees" json:"fees"`
	Address      string    `db:"address" json:"address"`
	Available    bool      `db:"available" json:"available"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Assignment statuses.
const (
	AssignmentActive   = "active"
	AssignmentInactive = "inactive"
)

// Assignment is one row of the care-team mirror: a patient currently or
// previously assigned to this doctor. The mirror is presentation state;
// record authorization lives in the grant ledger.
type Assignment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DoctorEmail  string    `db:"doctor_email" json:"doctorEmail"`
	PatientEmail string    `db:"patient_email" json:"patientEmail"`
	AssignedDate time.Time `db:"assigned_date" json:"assignedDate"`
	Status       string    `db:"status" json:"status"`
}

// AssignedPatient is an assignment joined with the patient's display name.
type AssignedPatient struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AssignedDate time.Time `json:"assignedDate"`
	Status       string    `json:"status"`
}
