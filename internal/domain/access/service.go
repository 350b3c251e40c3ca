package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/doctor"
	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/mail"
)

// PatientStore reads patient identities. Satisfied by patient.Repository.
type PatientStore interface {
	GetByEmail(ctx context.Context, email string) (*patient.Patient, error)
}

// DoctorStore reads doctor identities. Satisfied by doctor.Repository.
type DoctorStore interface {
	GetByEmail(ctx context.Context, email string) (*doctor.Doctor, error)
}

// NotificationAppender records a grant or revoke event for the doctor's
// feed. Append failures never fail the triggering call; the ledger write
// has already committed.
type NotificationAppender interface {
	Append(ctx context.Context, doctorEmail, patientEmail, patientName, kind string) error
}

type Service struct {
	repo          Repository
	patients      PatientStore
	doctors       DoctorStore
	notifications NotificationAppender
	mailer        mail.Sender
	templates     *mail.TemplateEngine
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(repo Repository, patients PatientStore, doctors DoctorStore, notifications NotificationAppender, mailer mail.Sender, templates *mail.TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		patients:      patients,
		doctors:       doctors,
		notifications: notifications,
		mailer:        mailer,
		templates:     templates,
		logger:        logger,
		now:           time.Now,
	}
}

// Grant authorizes the doctor to read the patient's record. Both identities
// must exist. A doctor already on the ledger is rejected with
// ErrAlreadyAuthorized and produces no side effects at all.
func (s *Service) Grant(ctx context.Context, patientEmail, doctorEmail string) error {
	if patientEmail == "" || doctorEmail == "" {
		return fmt.Errorf("%w: patient and doctor emails are required", ErrValidation)
	}
	p, err := s.patients.GetByEmail(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return fmt.Errorf("%w: patient %s", ErrNotFound, patientEmail)
		}
		return err
	}
	d, err := s.doctors.GetByEmail(ctx, doctorEmail)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return fmt.Errorf("%w: doctor %s", ErrNotFound, doctorEmail)
		}
		return err
	}

	exists, err := s.repo.Exists(ctx, patientEmail, doctorEmail)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyAuthorized
	}

	g := &Grant{
		PatientEmail: patientEmail,
		DoctorEmail:  doctorEmail,
		DoctorName:   d.Name,
		GrantedDate:  s.now(),
	}
	if err := s.repo.Insert(ctx, g); err != nil {
		return err
	}

	s.notify(ctx, doctorEmail, patientEmail, p.Name, "grant")
	return nil
}

// Revoke removes the doctor from the patient's ledger. Revoking a doctor
// who was never granted is a silent no-op and emits no notification.
func (s *Service) Revoke(ctx context.Context, patientEmail, doctorEmail string) error {
	if patientEmail == "" || doctorEmail == "" {
		return fmt.Errorf("%w: patient and doctor emails are required", ErrValidation)
	}
	p, err := s.patients.GetByEmail(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return fmt.Errorf("%w: patient %s", ErrNotFound, patientEmail)
		}
		return err
	}

	removed, err := s.repo.Delete(ctx, patientEmail, doctorEmail)
	if err != nil {
		return err
	}
	if removed {
		s.notify(ctx, doctorEmail, patientEmail, p.Name, "revoke")
	}
	return nil
}

// Check reports whether the doctor holds an active grant for the patient.
func (s *Service) Check(ctx context.Context, patientEmail, doctorEmail string) (bool, error) {
	if _, err := s.patients.GetByEmail(ctx, patientEmail); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return false, fmt.Errorf("%w: patient %s", ErrNotFound, patientEmail)
		}
		return false, err
	}
	return s.repo.Exists(ctx, patientEmail, doctorEmail)
}

// ReadAuthorizedRecord returns the full patient record when the doctor is
// authorized, and HasAccess false with no record otherwise. Denial is a
// normal result so the caller can render an access-request prompt.
func (s *Service) ReadAuthorizedRecord(ctx context.Context, patientEmail, doctorEmail string) (*RecordResult, error) {
	p, err := s.patients.GetByEmail(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, fmt.Errorf("%w: patient %s", ErrNotFound, patientEmail)
		}
		return nil, err
	}
	ok, err := s.repo.Exists(ctx, patientEmail, doctorEmail)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &RecordResult{HasAccess: false}, nil
	}
	return &RecordResult{HasAccess: true, Patient: p}, nil
}

// ListAuthorized returns the patient's grants, oldest first.
func (s *Service) ListAuthorized(ctx context.Context, patientEmail string) ([]Grant, error) {
	if _, err := s.patients.GetByEmail(ctx, patientEmail); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, fmt.Errorf("%w: patient %s", ErrNotFound, patientEmail)
		}
		return nil, err
	}
	return s.repo.ListForPatient(ctx, patientEmail)
}

// ListPatientsForDoctor returns the patients who granted this doctor,
// newest grant first.
func (s *Service) ListPatientsForDoctor(ctx context.Context, doctorEmail string) ([]PatientRef, error) {
	return s.repo.ListPatientsForDoctor(ctx, doctorEmail)
}

// notify records the event on the doctor's feed and emails the doctor.
// Both legs are best effort; the ledger write has already committed.
func (s *Service) notify(ctx context.Context, doctorEmail, patientEmail, patientName, kind string) {
	if err := s.notifications.Append(ctx, doctorEmail, patientEmail, patientName, kind); err != nil {
		s.logger.Warn().Err(err).
			Str("doctor", doctorEmail).
			Str("patient", patientEmail).
			Str("kind", kind).
			Msg("notification append failed")
	}

	action := "granted"
	if kind == "revoke" {
		action = "revoked"
	}
	subject, body, err := s.templates.Render("access-change", map[string]string{
		"patient_name": patientName,
		"action":       action,
	})
	if err == nil {
		err = s.mailer.Send(ctx, doctorEmail, subject, body)
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("doctor", doctorEmail).
			Str("kind", kind).
			Msg("access change email failed")
	}
}
