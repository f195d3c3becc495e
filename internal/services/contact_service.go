package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/validation"
	pkglogger "github.com/researcherhojin/emelmujiro/pkg/logger"
)

// ContactRepository defines the persistence operations the contact pipeline needs
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
}

// ValidationError carries the full set of field failures for a submission.
type ValidationError struct {
	Fields validation.Result
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// ContactSubmission is the raw, untrusted form payload plus the
// server-resolved request identity.
type ContactSubmission struct {
	Name         string
	Email        string
	Company      string
	Phone        string
	InquiryType  string
	Subject      string
	Message      string
	CaptchaToken string

	// Resolved server-side, never from the payload
	IPAddress string
	UserAgent string
}

// ContactService runs the contact submission pipeline: CAPTCHA, abuse
// ceilings, field validation, persistence, admin notification. Stages are
// ordered cheapest-rejection-first so abusive traffic does the least work.
type ContactService struct {
	repo    ContactRepository
	ledger  *AbuseLedger
	captcha CaptchaVerifier
	email   EmailService
	logger  *slog.Logger
	audit   *pkglogger.AuditLogger
}

func NewContactService(
	repo ContactRepository,
	ledger *AbuseLedger,
	captcha CaptchaVerifier,
	email EmailService,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *ContactService {
	return &ContactService{
		repo:    repo,
		ledger:  ledger,
		captcha: captcha,
		email:   email,
		logger:  logger,
		audit:   audit,
	}
}

// Submit processes one contact-form submission. Every attempt past the
// CAPTCHA counts against the abuse ceilings, accepted or rejected, so a
// sender cannot probe the form for free.
func (s *ContactService) Submit(ctx context.Context, sub ContactSubmission) (*models.Contact, error) {
	if err := s.captcha.Verify(ctx, sub.CaptchaToken, sub.IPAddress); err != nil {
		s.audit.LogContactAttempt(sub.IPAddress, sub.Email, false, "captcha_failed")
		return nil, models.ErrCaptchaFailed
	}

	if err := s.ledger.RecordContactAttempt(ctx, sub.IPAddress, sub.Email); err != nil {
		s.audit.LogContactAttempt(sub.IPAddress, sub.Email, false, "rate_limited")
		return nil, err
	}

	result := validation.ValidateContact(validation.ContactInput{
		Name:        sub.Name,
		Email:       sub.Email,
		Company:     sub.Company,
		Phone:       sub.Phone,
		InquiryType: sub.InquiryType,
		Subject:     sub.Subject,
		Message:     sub.Message,
	})
	if !result.Valid() {
		s.audit.LogContactAttempt(sub.IPAddress, sub.Email, false, "validation_failed")
		return nil, &ValidationError{Fields: result}
	}

	// Store the normalized form the validator approved, not the raw payload
	contact, err := s.repo.Create(ctx, &models.Contact{
		Name:        strings.TrimSpace(sub.Name),
		Email:       strings.ToLower(strings.TrimSpace(sub.Email)),
		Company:     strings.TrimSpace(sub.Company),
		Phone:       strings.TrimSpace(sub.Phone),
		InquiryType: sub.InquiryType,
		Subject:     strings.TrimSpace(sub.Subject),
		Message:     strings.TrimSpace(sub.Message),
		IPAddress:   sub.IPAddress,
		UserAgent:   sub.UserAgent,
	})
	if err != nil {
		s.logger.Error("failed to persist contact submission", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// The submission is already safe in the database; a notification failure
	// must not bounce it back to the visitor
	if err := s.email.SendContactNotification(ctx, contact); err != nil {
		s.logger.Error("contact notification delivery failed",
			slog.String("contact_id", contact.ID), slog.Any("error", err))
	}

	s.audit.LogContactAttempt(sub.IPAddress, sub.Email, true, "")

	return contact, nil
}
