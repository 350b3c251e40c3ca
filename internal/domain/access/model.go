// Package access is the authorization gateway between doctors and patient
// records. Patients grant and revoke a doctor's read access; every decision
// consults the grant ledger, never the care-team assignment or the display
// pointer.
package access

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/patient"
)

// Grant is one row of the authoritative access ledger. DoctorName is a
// snapshot taken at grant time so the list renders without a join.
type Grant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientEmail string    `db:"patient_email" json:"patientEmail"`
	DoctorEmail  string    `db:"doctor_email" json:"doctorEmail"`
	DoctorName   string    `db:"doctor_name" json:"doctorName"`
	GrantedDate  time.Time `db:"granted_date" json:"grantedDate"`
}

// PatientRef identifies a patient who granted access to a doctor.
type PatientRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RecordResult is the outcome of a gated record read. HasAccess false is a
// normal result, not an error; Patient is nil in that case.
type RecordResult struct {
	HasAccess bool             `json:"hasAccess"`
	Patient   *patient.Patient `json:"patient,omitempty"`
}
