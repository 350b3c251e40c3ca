package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

func newTestContext(method, path, body string, principal *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if principal != nil {
		req = req.WithContext(auth.WithPrincipal(context.Background(), *principal))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_SignupAndLogin(t *testing.T) {
	repo := newMockRepo()
	codes := &mockOTP{valid: map[string]string{"gregory@example.com": "654321"}}
	h := NewHandler(newTestService(repo, codes))

	c, rec := newTestContext(http.MethodPost, "/doctor/signup",
		`{"name":"Gregory","email":"gregory@example.com","password":"secret","otp":"654321","speciality":"Diagnostics"}`, nil)
	if err := h.Signup(c); err != nil {
		t.Fatalf("Signup handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] == "" || resp["success"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}

	c, rec = newTestContext(http.MethodPost, "/doctor/login",
		`{"email":"gregory@example.com","password":"secret"}`, nil)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_LoginUnknownEmail(t *testing.T) {
	h := NewHandler(newTestService(newMockRepo(), nil))

	c, _ := newTestContext(http.MethodPost, "/doctor/login",
		`{"email":"nobody@example.com","password":"secret"}`, nil)
	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_SignupBadOTP(t *testing.T) {
	h := NewHandler(newTestService(newMockRepo(), nil))

	c, _ := newTestContext(http.MethodPost, "/doctor/signup",
		`{"name":"Gregory","email":"gregory@example.com","password":"secret","otp":"000000"}`, nil)
	err := h.Signup(c)
	if err == nil {
		t.Fatal("expected an error for a wrong code")
	}
}

func TestHandler_Me(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	h := NewHandler(newTestService(repo, nil))

	principal := &auth.Principal{Kind: auth.KindDoctor, Email: "gregory@example.com"}
	c, rec := newTestContext(http.MethodGet, "/doctor/me", "", principal)
	if err := h.Me(c); err != nil {
		t.Fatalf("Me handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Doctor Doctor `json:"doctor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Doctor.Name != "Gregory" {
		t.Fatalf("unexpected doctor %+v", resp.Doctor)
	}
}

func TestHandler_Directory(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	seedDoctor(repo, "Lisa", "lisa@example.com")
	h := NewHandler(newTestService(repo, nil))

	c, rec := newTestContext(http.MethodGet, "/doctor/all?limit=1", "", nil)
	if err := h.Directory(c); err != nil {
		t.Fatalf("Directory handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Doctors struct {
			Data    []Doctor `json:"data"`
			Total   int      `json:"total"`
			HasMore bool     `json:"has_more"`
		} `json:"doctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Doctors.Total != 2 || len(resp.Doctors.Data) != 1 || !resp.Doctors.HasMore {
		t.Fatalf("unexpected page: %+v", resp.Doctors)
	}
}

func TestHandler_Search(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory House", "gregory@example.com")
	h := NewHandler(newTestService(repo, nil))

	c, rec := newTestContext(http.MethodGet, "/doctor/search?name=house", "", nil)
	if err := h.Search(c); err != nil {
		t.Fatalf("Search handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_SearchMissingName(t *testing.T) {
	h := NewHandler(newTestService(newMockRepo(), nil))

	c, _ := newTestContext(http.MethodGet, "/doctor/search", "", nil)
	err := h.Search(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetByEmailNotFound(t *testing.T) {
	h := NewHandler(newTestService(newMockRepo(), nil))

	c, _ := newTestContext(http.MethodGet, "/doctor/nobody@example.com", "", nil)
	c.SetParamNames("email")
	c.SetParamValues("nobody@example.com")
	err := h.GetByEmail(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_AssignedPatients(t *testing.T) {
	repo := newMockRepo()
	seedDoctor(repo, "Gregory", "gregory@example.com")
	if err := repo.UpsertAssignment(context.Background(), "gregory@example.com", "alice@example.com"); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	h := NewHandler(newTestService(repo, nil))

	principal := &auth.Principal{Kind: auth.KindDoctor, Email: "gregory@example.com"}
	c, rec := newTestContext(http.MethodGet, "/doctor/patients/assigned", "", principal)
	if err := h.AssignedPatients(c); err != nil {
		t.Fatalf("AssignedPatients handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Patients []AssignedPatient `json:"patients"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Patients) != 1 || resp.Patients[0].Email != "alice@example.com" {
		t.Fatalf("unexpected patients %+v", resp.Patients)
	}
}
