package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeedLimit is the read-side cap on the doctor's feed.
const FeedLimit = 10

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Append records an access-change event for the doctor. kind is
// TypeGrant or TypeRevoke.
func (s *Service) Append(ctx context.Context, doctorEmail, patientEmail, patientName, kind string) error {
	if doctorEmail == "" || patientEmail == "" {
		return fmt.Errorf("%w: doctor and patient emails are required", ErrValidation)
	}
	if kind != TypeGrant && kind != TypeRevoke {
		return fmt.Errorf("%w: unknown notification type %q", ErrValidation, kind)
	}
	n := &Notification{
		DoctorEmail:  doctorEmail,
		PatientEmail: patientEmail,
		PatientName:  patientName,
		Type:         kind,
		Date:         s.now(),
	}
	return s.repo.Insert(ctx, n)
}

// ListForDoctor returns the doctor's most recent notifications, newest
// first, at most FeedLimit of them.
func (s *Service) ListForDoctor(ctx context.Context, doctorEmail string) ([]Notification, error) {
	return s.repo.ListForDoctor(ctx, doctorEmail, FeedLimit)
}

// MarkRead flips the read flag. The notification must belong to the
// calling doctor; a mismatch is ErrForbidden.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, doctorEmail string) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.DoctorEmail != doctorEmail {
		return ErrForbidden
	}
	return s.repo.MarkRead(ctx, id)
}
