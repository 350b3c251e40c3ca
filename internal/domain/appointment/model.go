// Package appointment books visits between patients and doctors. A doctor
// holds at most one appointment per calendar day; availability checks and
// booking both use the whole-day window.
package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientEmail string    `db:"patient_email" json:"patientEmail"`
	PatientName  string    `db:"patient_name" json:"patientName"`
	DoctorEmail  string    `db:"doctor_email" json:"doctorEmail"`
	Date         time.Time `db:"date" json:"appointmentDate"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// validTransitions maps a current status to the statuses it may move to.
// Cancelled is terminal.
var validTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

func canTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
