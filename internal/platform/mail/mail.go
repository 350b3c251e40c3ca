// Package mail is the outbound e-mail collaborator: a Sender interface, an
// SMTP implementation, and a small template engine for the portal's
// transactional messages (OTP codes, appointment confirmations).
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
)

// Sender is the interface for sending e-mail messages.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// SMTP sender
// ---------------------------------------------------------------------------

// SMTPConfig holds connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPSender delivers mail through a standard SMTP relay with PLAIN auth.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers a single message. The context is accepted for interface
// symmetry; net/smtp does not support cancellation mid-session.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	if s.cfg.Host == "" {
		return errors.New("smtp host not configured")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Template engine
// ---------------------------------------------------------------------------

// Template defines a reusable e-mail template.
type Template struct {
	ID      string
	Name    string
	Subject string
	Body    string
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "otp-verification",
			Name:    "OTP Verification",
			Subject: "Your verification code",
			Body: "<h3>Hello,</h3><p>Your verification code is: <strong>{{otp}}</strong></p>" +
				"<p>This code is valid for {{ttl_minutes}} minutes.</p>",
		},
		{
			ID:      "appointment-confirmation",
			Name:    "Appointment Confirmation",
			Subject: "Appointment confirmed for {{date}}",
			Body: "<h3>Dear {{patient_name}},</h3><p>Your appointment with {{doctor_email}} " +
				"on {{date}} has been booked.</p>",
		},
		{
			ID:      "access-change",
			Name:    "Record Access Change",
			Subject: "Record access update",
			Body: "<h3>Hello,</h3><p>{{patient_name}} has {{action}} your access to " +
				"their medical record.</p>",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Mock sender (test double)
// ---------------------------------------------------------------------------

// Call records a single call to Send.
type Call struct {
	To      string
	Subject string
	Body    string
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu         sync.Mutex
	calls      []Call
	ShouldFail bool
	FailError  string
}

// Send records the call and optionally returns an error.
func (m *MockSender) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded calls.
func (m *MockSender) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
