package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/carelink/carelink/internal/platform/mail"
)

// AccountChecker reports whether an account already exists for an email.
// The patient and doctor stores both satisfy it; signup codes are refused
// for emails that already belong to either side.
type AccountChecker interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// MultiChecker combines checkers across identity stores.
type MultiChecker []AccountChecker

func (m MultiChecker) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, c := range m {
		exists, err := c.EmailExists(ctx, email)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

type Service struct {
	repo      Repository
	accounts  AccountChecker
	mailer    mail.Sender
	templates *mail.TemplateEngine
	ttl       time.Duration
	resendGap time.Duration

	now     func() time.Time
	genCode func() (string, error)
}

func NewService(repo Repository, accounts AccountChecker, mailer mail.Sender, templates *mail.TemplateEngine, ttl, resendGap time.Duration) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		mailer:    mailer,
		templates: templates,
		ttl:       ttl,
		resendGap: resendGap,
		now:       time.Now,
		genCode:   generateCode,
	}
}

// generateCode returns a random six-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Send issues a fresh code for a not-yet-registered email and mails it.
// A code issued less than the resend gap ago blocks a new one.
func (s *Service) Send(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}

	return s.issue(ctx, email)
}

// Resend replaces any outstanding code with a fresh one. The resend gap
// still applies; existence is not re-checked.
func (s *Service) Resend(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	return s.issue(ctx, email)
}

func (s *Service) issue(ctx context.Context, email string) error {
	if latest, err := s.repo.Latest(ctx, email); err == nil {
		if s.now().Sub(latest.CreatedAt) < s.resendGap {
			return ErrRateLimited
		}
	} else if !errors.Is(err, ErrCodeInvalid) {
		return err
	}

	// Superseded codes are deleted so only the newest one can verify.
	if err := s.repo.DeleteForEmail(ctx, email); err != nil {
		return err
	}

	code, err := s.genCode()
	if err != nil {
		return err
	}
	record := &Code{Email: email, Code: code, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, record); err != nil {
		return err
	}

	subject, body, err := s.templates.Render("otp-verification", map[string]string{
		"otp":         code,
		"ttl_minutes": strconv.Itoa(int(s.ttl.Minutes())),
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// Verify checks a code without invalidating it. Expiry is evaluated here;
// stale rows are never swept in the background.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and otp are required", ErrValidation)
	}
	latest, err := s.repo.Latest(ctx, email)
	if err != nil {
		return err
	}
	if latest.Code != code {
		return ErrCodeInvalid
	}
	if s.now().Sub(latest.CreatedAt) > s.ttl {
		return ErrCodeExpired
	}
	return nil
}

// Consume verifies a code and deletes it so it cannot be used again.
func (s *Service) Consume(ctx context.Context, email, code string) error {
	if err := s.Verify(ctx, email, code); err != nil {
		return err
	}
	return s.repo.DeleteForEmail(ctx, email)
}
