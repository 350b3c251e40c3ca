// Package patient owns the patient side of the identity store: signup,
// login, profile and address maintenance, and the care-team assignment
// display pointer.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// DoctorRef is the weak display pointer to the currently assigned doctor.
// It is denormalized presentation state; authorization never consults it.
type DoctorRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Patient is the extended patient record. Email is the cross-entity join
// key and is unique. Rows are never hard-deleted.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	Gender                string     `db:"gender" json:"gender"`
	DOB                   string     `db:"dob" json:"dob"`
	Phone                 string     `db:"phone" json:"phone"`
	BloodGroup            string     `db:"blood_group" json:"bloodGroup"`
	Age                   int        `db:"age" json:"age"`
	EmergencyContact      string     `db:"emergency_contact" json:"emergencyContact"`
	Allergies             string     `db:"allergies" json:"allergies"`
	VaccinationHistory    string     `db:"vaccination_history" json:"vaccinationHistory"`
	HealthInsurancePolicy string     `db:"health_insurance_policy" json:"healthInsurancePolicy"`
	PermanentAddress      string     `db:"permanent_address" json:"permanentAddress"`
	CorrespondenceAddress string     `db:"correspondence_address" json:"correspondenceAddress"`
	Lane                  string     `db:"lane" json:"lane"`
	City                  string     `db:"city" json:"city"`
	State                 string     `db:"state" json:"state"`
	Country               string     `db:"country" json:"country"`
	PostalCode            string     `db:"postal_code" json:"postalCode"`
	Landmark              string     `db:"landmark" json:"landmark"`
	AlternativeContact    string     `db:"alternative_contact" json:"alternativeContact"`
	AddressType           string     `db:"address_type" json:"addressType"`
	AdditionalNotes       string     `db:"additional_notes" json:"additionalNotes"`
	AssignedDoctor        *DoctorRef `json:"assignedDoctor,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

// Placeholder values applied at signup, matching what the portal's clients
// render for fields the patient has not filled in yet.
const (
	defaultNotSelected = "Not Selected"
	defaultNotProvided = "Not Provided"
	defaultNone        = "None"
	defaultPhone       = "00000000000"
	defaultNotes       = "No additional notes"
)

// applyDefaults fills unset optional fields with their placeholder values.
func (p *Patient) applyDefaults() {
	if p.Gender == "" {
		p.Gender = defaultNotSelected
	}
	if p.DOB == "" {
		p.DOB = defaultNotSelected
	}
	if p.Phone == "" {
		p.Phone = defaultPhone
	}
	if p.BloodGroup == "" {
		p.BloodGroup = defaultNotProvided
	}
	if p.EmergencyContact == "" {
		p.EmergencyContact = defaultNotProvided
	}
	if p.Allergies == "" {
		p.Allergies = defaultNone
	}
	if p.VaccinationHistory == "" {
		p.VaccinationHistory = defaultNone
	}
	if p.HealthInsurancePolicy == "" {
		p.HealthInsurancePolicy = defaultNone
	}
	if p.PermanentAddress == "" {
		p.PermanentAddress = defaultNotProvided
	}
	if p.CorrespondenceAddress == "" {
		p.CorrespondenceAddress = defaultNotProvided
	}
	if p.Lane == "" {
		p.Lane = defaultNotProvided
	}
	if p.City == "" {
		p.City = defaultNotProvided
	}
	if p.State == "" {
		p.State = defaultNotProvided
	}
	if p.Country == "" {
		p.Country = defaultNotProvided
	}
	if p.PostalCode == "" {
		p.PostalCode = defaultNotProvided
	}
	if p.Landmark == "" {
		p.Landmark = defaultNotProvided
	}
	if p.AlternativeContact == "" {
		p.AlternativeContact = defaultNotProvided
	}
	if p.AddressType == "" {
		p.AddressType = defaultNotSelected
	}
	if p.AdditionalNotes == "" {
		p.AdditionalNotes = defaultNotes
	}
}
