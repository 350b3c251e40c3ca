package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/mail"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Insert(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ExistsOnDay(_ context.Context, doctorEmail string, at time.Time) (bool, error) {
	y, mo, d := at.Date()
	for _, a := range m.appointments {
		ay, amo, ad := a.Date.Date()
		if a.DoctorEmail == doctorEmail && a.Status != StatusCancelled &&
			ay == y && amo == mo && ad == d {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ListForPatient(_ context.Context, patientEmail string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range m.appointments {
		if a.PatientEmail == patientEmail {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListForDoctor(_ context.Context, doctorEmail string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range m.appointments {
		if a.DoctorEmail == doctorEmail {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func newTestService(repo *mockRepo, sender *mail.MockSender) *Service {
	if sender == nil {
		sender = &mail.MockSender{}
	}
	svc := NewService(repo, sender, mail.NewTemplateEngine(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// Booking
// ---------------------------------------------------------------------------

func TestService_Book(t *testing.T) {
	repo := newMockRepo()
	sender := &mail.MockSender{}
	svc := newTestService(repo, sender)

	a, err := svc.Book(context.Background(), BookRequest{
		PatientEmail: "alice@example.com", PatientName: "Alice",
		DoctorEmail: "gregory@example.com", Date: day(10),
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("expected pending, got %q", a.Status)
	}
	calls := sender.Calls()
	if len(calls) != 1 || calls[0].To != "alice@example.com" {
		t.Fatalf("expected one confirmation email to the patient, got %+v", calls)
	}
}

func TestService_BookSameDayConflict(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com",
		Date: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Different hour, same calendar day.
	_, err := svc.Book(ctx, BookRequest{
		PatientEmail: "bob@example.com", DoctorEmail: "gregory@example.com",
		Date: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("conflicting booking must not persist, got %d rows", len(repo.appointments))
	}
}

func TestService_BookNextDayIsFree(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.Book(ctx, BookRequest{
		PatientEmail: "bob@example.com", DoctorEmail: "gregory@example.com", Date: day(11),
	}); err != nil {
		t.Fatalf("next-day booking failed: %v", err)
	}
}

func TestService_BookMissingFields(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	_, err := svc.Book(context.Background(), BookRequest{PatientEmail: "alice@example.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_BookSurvivesMailFailure(t *testing.T) {
	repo := newMockRepo()
	sender := &mail.MockSender{ShouldFail: true}
	svc := newTestService(repo, sender)

	_, err := svc.Book(context.Background(), BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	})
	if err != nil {
		t.Fatalf("booking must survive a mail failure, got %v", err)
	}
	if len(repo.appointments) != 1 {
		t.Fatal("appointment not persisted")
	}
}

func TestService_CheckAvailability(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	ctx := context.Background()

	free, err := svc.CheckAvailability(ctx, "gregory@example.com", day(10))
	if err != nil || !free {
		t.Fatalf("expected free day, got free=%v err=%v", free, err)
	}

	if _, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	}); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	free, err = svc.CheckAvailability(ctx, "gregory@example.com", day(10))
	if err != nil || free {
		t.Fatalf("expected taken day, got free=%v err=%v", free, err)
	}
}

func TestService_CancelledDayBecomesFree(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	a, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, a.ID, "gregory@example.com", StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	free, err := svc.CheckAvailability(ctx, "gregory@example.com", day(10))
	if err != nil || !free {
		t.Fatalf("cancelled appointment must free the day, got free=%v err=%v", free, err)
	}
}

// ---------------------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------------------

func TestService_UpdateStatusTransitions(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	ctx := context.Background()

	a, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	a, err = svc.UpdateStatus(ctx, a.ID, "gregory@example.com", StatusConfirmed)
	if err != nil || a.Status != StatusConfirmed {
		t.Fatalf("pending to confirmed failed: %v", err)
	}

	a, err = svc.UpdateStatus(ctx, a.ID, "gregory@example.com", StatusCancelled)
	if err != nil || a.Status != StatusCancelled {
		t.Fatalf("confirmed to cancelled failed: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, a.ID, "gregory@example.com", StatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled must be terminal, got %v", err)
	}
}

func TestService_UpdateStatusWrongDoctor(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	ctx := context.Background()

	a, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, a.ID, "lisa@example.com", StatusConfirmed)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_UpdateStatusUnknownID(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "gregory@example.com", StatusConfirmed)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateStatusRejectsPending(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	ctx := context.Background()

	a, err := svc.Book(ctx, BookRequest{
		PatientEmail: "alice@example.com", DoctorEmail: "gregory@example.com", Date: day(10),
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, a.ID, "gregory@example.com", StatusPending)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
