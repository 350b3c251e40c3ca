package patient

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/carelink/carelink/internal/platform/auth"
)

// OTPConsumer verifies a signup code and invalidates it on success.
type OTPConsumer interface {
	Consume(ctx context.Context, email, code string) error
}

// TokenIssuer signs bearer tokens for authenticated principals.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// PasswordChecker validates a login password against a stored hash.
type PasswordChecker interface {
	Hash(password string) (string, error)
	Check(hash, password string) error
}

// DoctorDirectory is the slice of the doctor domain the patient service
// needs for care-team assignment.
type DoctorDirectory interface {
	GetRef(ctx context.Context, email string) (DoctorRef, error)
	RecordAssignment(ctx context.Context, doctorEmail, patientEmail string) error
}

// TxRunner executes a function inside a single database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo      Repository
	doctors   DoctorDirectory
	otp       OTPConsumer
	issuer    TokenIssuer
	passwords PasswordChecker
	tx        TxRunner
}

func NewService(repo Repository, doctors DoctorDirectory, otp OTPConsumer, issuer TokenIssuer, passwords PasswordChecker, tx TxRunner) *Service {
	return &Service{repo: repo, doctors: doctors, otp: otp, issuer: issuer, passwords: passwords, tx: tx}
}

// SignupRequest carries the fields of a patient registration.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Signup verifies the emailed code, creates the patient, and returns a
// signed bearer token.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (string, *Patient, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" || req.OTP == "" {
		return "", nil, fmt.Errorf("%w: name, email, password and otp are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "", nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	if err := s.otp.Consume(ctx, req.Email, req.OTP); err != nil {
		return "", nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	p := &Patient{Name: req.Name, Email: req.Email, PasswordHash: hash}
	p.applyDefaults()
	if err := s.repo.Create(ctx, p); err != nil {
		return "", nil, err
	}

	token, err := s.issuer.Issue(auth.Principal{Kind: auth.KindPatient, Email: p.Email, Name: p.Name})
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// Login checks credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Patient, error) {
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if err := s.passwords.Check(p.PasswordHash, password); err != nil {
		return "", nil, fmt.Errorf("%w: invalid password", ErrValidation)
	}
	token, err := s.issuer.Issue(auth.Principal{Kind: auth.KindPatient, Email: p.Email, Name: p.Name})
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// Get returns the full extended record for the given email.
func (s *Service) Get(ctx context.Context, email string) (*Patient, error) {
	return s.repo.GetByEmail(ctx, email)
}

// ProfileUpdate carries the editable demographic and medical fields.
// Empty fields keep their current value.
type ProfileUpdate struct {
	Name                  string `json:"name"`
	Gender                string `json:"gender"`
	DOB                   string `json:"dob"`
	Phone                 string `json:"phone"`
	BloodGroup            string `json:"bloodGroup"`
	Age                   int    `json:"age"`
	EmergencyContact      string `json:"emergencyContact"`
	Allergies             string `json:"allergies"`
	VaccinationHistory    string `json:"vaccinationHistory"`
	HealthInsurancePolicy string `json:"healthInsurancePolicy"`
}

// UpdateProfile applies non-empty fields of upd to the stored record.
func (s *Service) UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) (*Patient, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		p.Name = upd.Name
	}
	if upd.Gender != "" {
		p.Gender = upd.Gender
	}
	if upd.DOB != "" {
		p.DOB = upd.DOB
	}
	if upd.Phone != "" {
		p.Phone = upd.Phone
	}
	if upd.BloodGroup != "" {
		p.BloodGroup = upd.BloodGroup
	}
	if upd.Age != 0 {
		p.Age = upd.Age
	}
	if upd.EmergencyContact != "" {
		p.EmergencyContact = upd.EmergencyContact
	}
	if upd.Allergies != "" {
		p.Allergies = upd.Allergies
	}
	if upd.VaccinationHistory != "" {
		p.VaccinationHistory = upd.VaccinationHistory
	}
	if upd.HealthInsurancePolicy != "" {
		p.HealthInsurancePolicy = upd.HealthInsurancePolicy
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddressUpdate carries the address form. PermanentAddress, City, Country,
// PostalCode and ContactNumber are required.
type AddressUpdate struct {
	PermanentAddress      string `json:"permanentAddress"`
	CorrespondenceAddress string `json:"correspondenceAddress"`
	Lane                  string `json:"lane"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Country               string `json:"country"`
	PostalCode            string `json:"postalCode"`
	Landmark              string `json:"landmark"`
	ContactNumber         string `json:"contactNumber"`
	AlternativeContact    string `json:"alternativeContact"`
	EmergencyContact      string `json:"emergencyContact"`
	AddressType           string `json:"addressType"`
	AdditionalNotes       string `json:"additionalNotes"`
}

func (u AddressUpdate) missingFields() []string {
	var missing []string
	if u.PermanentAddress == "" {
		missing = append(missing, "permanentAddress")
	}
	if u.City == "" {
		missing = append(missing, "city")
	}
	if u.Country == "" {
		missing = append(missing, "country")
	}
	if u.PostalCode == "" {
		missing = append(missing, "postalCode")
	}
	if u.ContactNumber == "" {
		missing = append(missing, "contactNumber")
	}
	return missing
}

// UpdateAddress replaces the address block of the stored record.
func (s *Service) UpdateAddress(ctx context.Context, email string, upd AddressUpdate) (*Patient, error) {
	if missing := upd.missingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing fields: %v", ErrValidation, missing)
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	p.PermanentAddress = upd.PermanentAddress
	p.CorrespondenceAddress = upd.CorrespondenceAddress
	p.Lane = upd.Lane
	p.City = upd.City
	p.State = upd.State
	p.Country = upd.Country
	p.PostalCode = upd.PostalCode
	p.Landmark = upd.Landmark
	p.Phone = upd.ContactNumber
	p.AlternativeContact = upd.AlternativeContact
	if upd.EmergencyContact != "" {
		p.EmergencyContact = upd.EmergencyContact
	}
	if upd.AddressType != "" {
		p.AddressType = upd.AddressType
	}
	if upd.AdditionalNotes != "" {
		p.AdditionalNotes = upd.AdditionalNotes
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AssignDoctor points the patient at a doctor and records the assignment
// on the doctor's side. Both writes happen in one transaction so the
// pointer and the mirror cannot diverge.
func (s *Service) AssignDoctor(ctx context.Context, patientEmail, doctorEmail string) (*DoctorRef, error) {
	if doctorEmail == "" {
		return nil, fmt.Errorf("%w: doctorEmail is required", ErrValidation)
	}
	if _, err := s.repo.GetByEmail(ctx, patientEmail); err != nil {
		return nil, err
	}
	ref, err := s.doctors.GetRef(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetAssignedDoctor(ctx, patientEmail, ref); err != nil {
			return err
		}
		return s.doctors.RecordAssignment(ctx, doctorEmail, patientEmail)
	})
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
