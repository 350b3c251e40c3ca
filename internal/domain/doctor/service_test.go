package doctor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/auth"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockRepo struct {
	doctors  map[string]*Doctor
	assigned map[string][]AssignedPatient // doctorEmail -> mirror rows
	failOn   string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		doctors:  make(map[string]*Doctor),
		assigned: make(map[string][]AssignedPatient),
	}
}

func (m *mockRepo) Create(_ context.Context, d *Doctor) error {
	if m.failOn == "create" {
		return errors.New("create failed")
	}
	if _, ok := m.doctors[d.Email]; ok {
		return ErrEmailTaken
	}
	d.ID = uuid.New()
	cp := *d
	m.doctors[d.Email] = &cp
	return nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Doctor, error) {
	d, ok := m.doctors[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := m.doctors[email]
	return ok, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	emails := make([]string, 0, len(m.doctors))
	for email := range m.doctors {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	total := len(emails)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	var out []*Doctor
	for _, email := range emails[offset:end] {
		cp := *m.doctors[email]
		out = append(out, &cp)
	}
	return out, total, nil
}

func (m *mockRepo) SearchByName(_ context.Context, name string) (*Doctor, error) {
	for _, d := range m.doctors {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) UpsertAssignment(_ context.Context, doctorEmail, patientEmail string) error {
	rows := m.assigned[doctorEmail]
	kept := rows[:0]
	for _, r := range rows {
		if r.Email != patientEmail {
			kept = append(kept, r)
		}
	}
	m.assigned[doctorEmail] = append(kept, AssignedPatient{
		Email:        patientEmail,
		AssignedDate: time.Now(),
		Status:       AssignmentActive,
	})
	return nil
}

func (m *mockRepo) ListAssignedPatients(_ context.Context, doctorEmail string) ([]AssignedPatient, error) {
	return m.assigned[doctorEmail], nil
}

type mockOTP struct {
	valid map[string]string // email -> code
}

func (m *mockOTP) Consume(_ context.Context, email, code string) error {
	if m.valid[email] != code {
		return errors.New("invalid code")
	}
	delete(m.valid, email)
	return nil
}

type mockIssuer struct{ fail bool }

func (m *mockIssuer) Issue(p auth.Principal) (string, error) {
	if m.fail {
		return "", errors.New("issue failed")
	}
	return "token-" + p.Kind + "-" + p.Email, nil
}

type plainPasswords struct{}

func (plainPasswords) Hash(password string) (string, error) { return "hash:" + password, nil }
func (plainPasswords) Check(hash, password string) error {
	if hash != "hash:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

func newTestService(repo *mockRepo, codes *mockOTP) *Service {
	if codes == nil {
		codes = &mockOTP{valid: map[string]string{}}
	}
	return NewService(repo, codes, &mockIssuer{}, plainPasswords{})
}

func seedDoctor(repo *mockRepo, name, email string) {
	repo.doctors[email] = &Doctor{
		ID: uuid.New(), Name: name, Email: email,
		PasswordHash: "hash:secret", Speciality: "General",
	}
}

// ---------------------------------------------------------------------------
// Signup / Login
// ---------------------------------------------------------------------------

func TestService_Signup(t *testing.T) {
	repo := newMockRepo()
	codes := &mockOTP{valid: map[string]string{"gregory@example.com": "654321"}}
	svc := newTestService(repo, codes)

	token, d, err := svc.Signup(context.Background(), SignupRequest{
		Name: "Gregory", Email: "gregory@example.com", Password: "secret", OTP: "654321",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if d.Speciality != "General" || d.Degree != "N/A" || d.About != "N/A" {
		t.Fatalf("expected placeholder defaults, got %+v", d)
	}
	if d.Fees != 0 || d.Available {
		t.Fatalf("expected zero fees and unavailable by default, got %+v", d)
	}
	stored := repo.doctors["gregory@example.com"]
	if stored == nil {
		t.Fatal("doctor not persisted")
	}
	if stored.PasswordHash != "hash:secret" {
		t.Fatalf("expected hashed password, got %q", stored.PasswordHash)
	}
}

func TestService_SignupKeepsProvidedPracticeFields(t *testing.T) {
	repo := newMockRepo()
	codes := &mockOTP{valid: map[string]string{"lisa@example.com": "111111"}}
	svc := newTestService(repo, codes)

	_, d, err := svc.Signup(context.Background(), SignupRequest{
		Name: "Lisa", Email: "lisa@example.com", Password: "secret", OTP: "111111",
		Speciality: "Cardiology", Degree: "MD", Fees: 150, Available: true,
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if d.Speciality != "Cardiology" || d.Degree != "MD" || d.Fees != 150 || !d.Available {
		t.Fatalf("provided fields overwritten: %+v", d)
	}
}

func TestService_SignupMissingFields(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	_, _, err := svc.Signup(context.Background(), SignupRequest{Name: "Gregory", Email: "g@h.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_SignupInvalidEmail(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	_, _, err := svc.Signup(context.Background(), SignupRequest{
		Name: "Gregory", Email: "not-an-email", Password: "x", OTP: "654321",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_SignupWrongOTP(t *testing.T) {
	codes := &mockOTP{valid: map[string]string{"gregory@example.com": "654321"}}
	svc := newTestService(newMockRepo(), codes)

	_, _, err := svc.Signup(context.Background(), SignupRequest{
		Name: "Gregory", Email: "gregory@example.com", Password: "secret", OTP: "000000",
	})
	if err == nil {
		t.Fatal("expected an error for a wrong code")
	}
}

func TestService_SignupDuplicateEmail(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	codes := &mockOTP{valid: map[string]string{"gregory@example.com": "654321"}}
	svc := newTestService(repo, codes)

	_, _, err := svc.Signup(context.Background(), SignupRequest{
		Name: "Gregory", Email: "gregory@example.com", Password: "secret", OTP: "654321",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	svc := newTestService(repo, nil)

	token, d, err := svc.Login(context.Background(), "gregory@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "token-doctor-gregory@example.com" {
		t.Fatalf("unexpected token %q", token)
	}
	if d.Name != "Gregory" {
		t.Fatalf("unexpected doctor %+v", d)
	}
}

func TestService_LoginWrongPassword(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	svc := newTestService(repo, nil)

	_, _, err := svc.Login(context.Background(), "gregory@example.com", "wrong")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_LoginUnknownEmail(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Directory / Search
// ---------------------------------------------------------------------------

func TestService_Directory(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	seedDoctor(repo, "Lisa", "lisa@example.com")
	seedDoctor(repo, "James", "james@example.com")
	svc := newTestService(repo, nil)

	doctors, total, err := svc.Directory(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(doctors) != 2 {
		t.Fatalf("expected 2 doctors in page, got %d", len(doctors))
	}
}

func TestService_Search(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory House", "gregory@example.com")
	svc := newTestService(repo, nil)

	d, err := svc.Search(context.Background(), "house")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if d.Email != "gregory@example.com" {
		t.Fatalf("unexpected doctor %+v", d)
	}
}

func TestService_SearchEmptyName(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	_, err := svc.Search(context.Background(), "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_SearchNoMatch(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	svc := newTestService(repo, nil)

	_, err := svc.Search(context.Background(), "wilson")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Assignment mirror
// ---------------------------------------------------------------------------

func TestService_AssignedPatients(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	if err := repo.UpsertAssignment(context.Background(), "gregory@example.com", "alice@example.com"); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	svc := newTestService(repo, nil)

	patients, err := svc.AssignedPatients(context.Background(), "gregory@example.com")
	if err != nil {
		t.Fatalf("AssignedPatients failed: %v", err)
	}
	if len(patients) != 1 || patients[0].Email != "alice@example.com" {
		t.Fatalf("unexpected mirror rows %+v", patients)
	}
	if patients[0].Status != AssignmentActive {
		t.Fatalf("expected active status, got %q", patients[0].Status)
	}
}

func TestService_AssignedPatientsEmpty(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	patients, err := svc.AssignedPatients(context.Background(), "gregory@example.com")
	if err != nil {
		t.Fatalf("AssignedPatients failed: %v", err)
	}
	if len(patients) != 0 {
		t.Fatalf("expected no rows, got %+v", patients)
	}
}
