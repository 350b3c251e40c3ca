// Package notification keeps the per-doctor feed of access-change events.
// Rows are append-only; only the read flag ever changes.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	TypeGrant  = "grant"
	TypeRevoke = "revoke"
)

// Notification is one access-change event. PatientName is a snapshot taken
// when the event happened.
type Notification struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DoctorEmail  string    `db:"doctor_email" json:"doctorEmail"`
	PatientEmail string    `db:"patient_email" json:"patientEmail"`
	PatientName  string    `db:"patient_name" json:"patientName"`
	Type         string    `db:"type" json:"type"`
	Read         bool      `db:"read" json:"read"`
	Date         time.Time `db:"date" json:"date"`
}
