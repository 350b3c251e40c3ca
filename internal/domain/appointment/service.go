package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/mail"
)

type Service struct {
	repo      Repository
	mailer    mail.Sender
	templates *mail.TemplateEngine
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, mailer mail.Sender, templates *mail.TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		mailer:    mailer,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// BookRequest carries one booking.
type BookRequest struct {
	PatientEmail string    `json:"patientEmail"`
	PatientName  string    `json:"patientName"`
	DoctorEmail  string    `json:"doctorEmail"`
	Date         time.Time `json:"appointmentDate"`
}

// Book creates a pending appointment after checking the doctor's day is
// free. The confirmation email is best effort; a delivery failure never
// rolls back the booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.PatientEmail == "" || req.DoctorEmail == "" || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: patient email, doctor email and date are required", ErrValidation)
	}

	taken, err := s.repo.ExistsOnDay(ctx, req.DoctorEmail, req.Date)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	a := &Appointment{
		PatientEmail: req.PatientEmail,
		PatientName:  req.PatientName,
		DoctorEmail:  req.DoctorEmail,
		Date:         req.Date,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, a)
	return a, nil
}

// CheckAvailability reports whether the doctor's day containing at is
// still free.
func (s *Service) CheckAvailability(ctx context.Context, doctorEmail string, at time.Time) (bool, error) {
	if doctorEmail == "" || at.IsZero() {
		return false, fmt.Errorf("%w: doctor email and date are required", ErrValidation)
	}
	taken, err := s.repo.ExistsOnDay(ctx, doctorEmail, at)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// ListForPatient returns the patient's appointments, newest first.
func (s *Service) ListForPatient(ctx context.Context, patientEmail string) ([]Appointment, error) {
	return s.repo.ListForPatient(ctx, patientEmail)
}

// ListForDoctor returns the doctor's appointments, newest first.
func (s *Service) ListForDoctor(ctx context.Context, doctorEmail string) ([]Appointment, error) {
	return s.repo.ListForDoctor(ctx, doctorEmail)
}

// UpdateStatus moves the appointment through pending → confirmed →
// cancelled. Only the booked doctor may change it; cancelled is terminal.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, doctorEmail, status string) (*Appointment, error) {
	if status != StatusConfirmed && status != StatusCancelled {
		return nil, fmt.Errorf("%w: status must be %s or %s", ErrValidation, StatusConfirmed, StatusCancelled)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorEmail != doctorEmail {
		return nil, ErrForbidden
	}
	if !canTransition(a.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}

func (s *Service) sendConfirmation(ctx context.Context, a *Appointment) {
	subject, body, err := s.templates.Render("appointment-confirmation", map[string]string{
		"patient_name": a.PatientName,
		"doctor_email": a.DoctorEmail,
		"date":         a.Date.Format("January 2, 2006"),
	})
	if err == nil {
		err = s.mailer.Send(ctx, a.PatientEmail, subject, body)
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("patient", a.PatientEmail).
			Str("doctor", a.DoctorEmail).
			Msg("confirmation email failed")
	}
}
