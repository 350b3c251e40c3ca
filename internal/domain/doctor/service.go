package doctor

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

type Service struct {
	repo      Repository
	otp       OTPConsumer
	issuer    TokenIssuer
	passwords PasswordChecker
}

func NewService(repo Repository, otp OTPConsumer, issuer TokenIssuer, passwords PasswordChecker) *Service {
	return &Service{repo: repo, otp: otp, issuer: issuer, passwords: passwords}
}

// SignupRequest carries the fields of a doctor registration.
type SignupRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	OTP        string  `json:"otp"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       float64 `json:"fees"`
	Address    string  `json:"address"`
	Available  bool    `json:"available"`
}

// Signup verifies the emailed code, creates the doctor, and returns a
// signed bearer token. Unset practice fields get neutral placeholders.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (string, *Doctor, error) {
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

	d := &Doctor{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Speciality:   req.Speciality,
		Degree:       req.Degree,
		Experience:   req.Experience,
		About:        req.About,
		Fees:         req.Fees,
		Address:      req.Address,
		Available:    req.Available,
	}
	if d.Speciality == "" {
		d.Speciality = "General"
	}
	if d.Degree == "" {
		d.Degree = "N/A"
	}
	if d.Experience == "" {
		d.Experience = "N/A"
	}
	if d.About == "" {
		d.About = "N/A"
	}
	if d.Address == "" {
		d.Address = "N/A"
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return "", nil, err
	}

	token, err := s.issuer.Issue(auth.Principal{Kind: auth.KindDoctor, Email: d.Email, Name: d.Name})
	if err != nil {
		return "", nil, err
	}
	return token, d, nil
}

// Login checks credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Doctor, error) {
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	d, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if err := s.passwords.Check(d.PasswordHash, password); err != nil {
		return "", nil, fmt.Errorf("%w: invalid password", ErrValidation)
	}
	token, err := s.issuer.Issue(auth.Principal{Kind: auth.KindDoctor, Email: d.Email, Name: d.Name})
	if err != nil {
		return "", nil, err
	}
	return token, d, nil
}

// Get returns the doctor with the given email.
func (s *Service) Get(ctx context.Context, email string) (*Doctor, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Directory lists doctors for the public browse page.
func (s *Service) Directory(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Search finds a doctor by (partial, case-insensitive) name.
func (s *Service) Search(ctx context.Context, name string) (*Doctor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	return s.repo.SearchByName(ctx, name)
}

// AssignedPatients lists the doctor's care-team mirror, newest first.
func (s *Service) AssignedPatients(ctx context.Context, doctorEmail string) ([]AssignedPatient, error) {
	return s.repo.ListAssignedPatients(ctx, doctorEmail)
}
