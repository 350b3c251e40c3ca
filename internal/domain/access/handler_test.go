package access

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

func patientPrincipal() *auth.Principal {
	return &auth.Principal{Kind: auth.KindPatient, Email: "alice@example.com"}
}

func doctorPrincipal() *auth.Principal {
	return &auth.Principal{Kind: auth.KindDoctor, Email: "gregory@example.com"}
}

func TestHandler_Grant(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newTestContext(http.MethodPost, "/doctor-access/grant",
		`{"doctorEmail":"gregory@example.com"}`, patientPrincipal())
	if err := h.Grant(c); err != nil {
		t.Fatalf("Grant handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GrantDuplicate(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newTestContext(http.MethodPost, "/doctor-access/grant",
		`{"doctorEmail":"gregory@example.com"}`, patientPrincipal())
	if err := h.Grant(c); err != nil {
		t.Fatalf("first grant failed: %v", err)
	}

	c, _ = newTestContext(http.MethodPost, "/doctor-access/grant",
		`{"doctorEmail":"gregory@example.com"}`, patientPrincipal())
	err := h.Grant(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate grant, got %v", err)
	}
}

func TestHandler_GrantUnknownDoctor(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newTestContext(http.MethodPost, "/doctor-access/grant",
		`{"doctorEmail":"nobody@example.com"}`, patientPrincipal())
	err := h.Grant(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_RevokeNeverGranted(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newTestContext(http.MethodPost, "/doctor-access/revoke",
		`{"doctorEmail":"gregory@example.com"}`, patientPrincipal())
	if err := h.Revoke(c); err != nil {
		t.Fatalf("Revoke handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_ListAuthorizedEmpty(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newTestContext(http.MethodGet, "/doctor-access/authorized", "", patientPrincipal())
	if err := h.ListAuthorized(c); err != nil {
		t.Fatalf("ListAuthorized handler failed: %v", err)
	}
	var resp struct {
		AuthorizedDoctors []Grant `json:"authorizedDoctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AuthorizedDoctors == nil || len(resp.AuthorizedDoctors) != 0 {
		t.Fatalf("expected empty list, got %+v", resp.AuthorizedDoctors)
	}
}

func TestHandler_ReadRecordBeforeAndAfterGrant(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newTestContext(http.MethodGet, "/doctor/patient/alice@example.com", "", doctorPrincipal())
	c.SetParamNames("patientEmail")
	c.SetParamValues("alice@example.com")
	if err := h.ReadRecord(c); err != nil {
		t.Fatalf("ReadRecord handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 denial, got %d", rec.Code)
	}
	var denied struct {
		HasAccess bool            `json:"hasAccess"`
		Patient   json.RawMessage `json:"patient"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &denied); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if denied.HasAccess || denied.Patient != nil {
		t.Fatalf("expected no patient fields before grant, got %s", rec.Body.String())
	}

	if err := f.svc.Grant(context.Background(), "alice@example.com", "gregory@example.com"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	c, rec = newTestContext(http.MethodGet, "/doctor/patient/alice@example.com", "", doctorPrincipal())
	c.SetParamNames("patientEmail")
	c.SetParamValues("alice@example.com")
	if err := h.ReadRecord(c); err != nil {
		t.Fatalf("ReadRecord handler failed: %v", err)
	}
	var granted struct {
		HasAccess bool `json:"hasAccess"`
		Patient   struct {
			BloodGroup string `json:"bloodGroup"`
		} `json:"patient"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &granted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !granted.HasAccess || granted.Patient.BloodGroup != "O+" {
		t.Fatalf("expected full record after grant, got %s", rec.Body.String())
	}
}

func TestHandler_ReadRecordUnknownPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newTestContext(http.MethodGet, "/doctor/patient/nobody@example.com", "", doctorPrincipal())
	c.SetParamNames("patientEmail")
	c.SetParamValues("nobody@example.com")
	err := h.ReadRecord(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_CheckAccess(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	if err := f.svc.Grant(context.Background(), "alice@example.com", "gregory@example.com"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/doctor/check-access/alice@example.com", "", doctorPrincipal())
	c.SetParamNames("patientEmail")
	c.SetParamValues("alice@example.com")
	if err := h.CheckAccess(c); err != nil {
		t.Fatalf("CheckAccess handler failed: %v", err)
	}
	var resp struct {
		HasAccess bool `json:"hasAccess"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.HasAccess {
		t.Fatal("expected hasAccess true")
	}
}

func TestHandler_ListPatients(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	if err := f.svc.Grant(context.Background(), "alice@example.com", "gregory@example.com"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/doctor/patients", "", doctorPrincipal())
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("ListPatients handler failed: %v", err)
	}
	var resp struct {
		Patients []PatientRef `json:"patients"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Patients) != 1 || resp.Patients[0].Email != "alice@example.com" {
		t.Fatalf("unexpected patients %+v", resp.Patients)
	}
}
