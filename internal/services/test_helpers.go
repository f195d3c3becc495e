package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
	pkglogger "github.com/researcherhojin/emelmujiro/pkg/logger"
)

// Function-field mocks: set only the functions a test needs; unset functions
// fail loudly via nil dereference, pointing straight at the missing stub.

type MockContactRepository struct {
	CreateFunc func(ctx context.Context, contact *models.Contact) (*models.Contact, error)
}

func (m *MockContactRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	return m.CreateFunc(ctx, contact)
}

type MockNewsletterRepository struct {
	GetByEmailFunc        func(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	CreateFunc            func(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error)
	ReactivateFunc        func(ctx context.Context, id, newToken, ipAddress string) (*models.NewsletterSubscription, error)
	DeactivateByTokenFunc func(ctx context.Context, token string) (*models.NewsletterSubscription, error)
}

func (m *MockNewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *MockNewsletterRepository) Create(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
	return m.CreateFunc(ctx, sub)
}

func (m *MockNewsletterRepository) Reactivate(ctx context.Context, id, newToken, ipAddress string) (*models.NewsletterSubscription, error) {
	return m.ReactivateFunc(ctx, id, newToken, ipAddress)
}

func (m *MockNewsletterRepository) DeactivateByToken(ctx context.Context, token string) (*models.NewsletterSubscription, error) {
	return m.DeactivateByTokenFunc(ctx, token)
}

type MockBlogRepository struct {
	ListPublishedFunc      func(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error)
	GetPublishedByIDFunc   func(ctx context.Context, id string) (*models.BlogPost, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.BlogPost, error)
	IncrementViewCountFunc func(ctx context.Context, id string) error
	CategoryCountsFunc     func(ctx context.Context) ([]models.CategoryCount, error)
	CreateFunc             func(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error)
	UpdateFunc             func(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error)
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *MockBlogRepository) ListPublished(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error) {
	return m.ListPublishedFunc(ctx, filter)
}

func (m *MockBlogRepository) GetPublishedByID(ctx context.Context, id string) (*models.BlogPost, error) {
	return m.GetPublishedByIDFunc(ctx, id)
}

func (m *MockBlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockBlogRepository) IncrementViewCount(ctx context.Context, id string) error {
	return m.IncrementViewCountFunc(ctx, id)
}

func (m *MockBlogRepository) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	return m.CategoryCountsFunc(ctx)
}

func (m *MockBlogRepository) Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	return m.CreateFunc(ctx, post)
}

func (m *MockBlogRepository) Update(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error) {
	return m.UpdateFunc(ctx, id, post)
}

func (m *MockBlogRepository) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type MockUserRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	SetTOTPSecretFunc func(ctx context.Context, id, secret string) error
	ConfirmTOTPFunc   func(ctx context.Context, id string) error
	ClearTOTPFunc     func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *MockUserRepository) SetTOTPSecret(ctx context.Context, id, secret string) error {
	return m.SetTOTPSecretFunc(ctx, id, secret)
}

func (m *MockUserRepository) ConfirmTOTP(ctx context.Context, id string) error {
	return m.ConfirmTOTPFunc(ctx, id)
}

func (m *MockUserRepository) ClearTOTP(ctx context.Context, id string) error {
	return m.ClearTOTPFunc(ctx, id)
}

type MockTokenRevocationRepository struct {
	RevokeFunc    func(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevokedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *MockTokenRevocationRepository) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	if m.RevokeFunc == nil {
		return nil
	}
	return m.RevokeFunc(ctx, jti, userID, expiresAt)
}

func (m *MockTokenRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsRevokedFunc == nil {
		return false, nil
	}
	return m.IsRevokedFunc(ctx, jti)
}

type MockEmailService struct {
	SendContactNotificationFunc func(ctx context.Context, contact *models.Contact) error
	Sent                        []*models.Contact
}

func (m *MockEmailService) SendContactNotification(ctx context.Context, contact *models.Contact) error {
	m.Sent = append(m.Sent, contact)
	if m.SendContactNotificationFunc == nil {
		return nil
	}
	return m.SendContactNotificationFunc(ctx, contact)
}

type MockCaptchaVerifier struct {
	VerifyFunc func(ctx context.Context, token, remoteIP string) error
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if m.VerifyFunc == nil {
		return nil
	}
	return m.VerifyFunc(ctx, token, remoteIP)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}
