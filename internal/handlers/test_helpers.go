package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
	"github.com/researcherhojin/emelmujiro/pkg/logger"
)

// NewTestRequest creates an HTTP request with a JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds access-token claims to the request context
func WithAuthContext(req *http.Request, userID, email, role string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   "access",
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithURLParam adds a chi route parameter to the request context
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks the status code and decodes the JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks the status code and that an error body is present
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.NotEmpty(t, resp.Error, "Error message should not be empty")
}

// TestAuditLogger returns an audit logger that discards output
func TestAuditLogger() *logger.AuditLogger {
	return logger.NewAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// MockContactService implements ContactServiceInterface for testing
type MockContactService struct {
	SubmitFunc func(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error)
}

func (m *MockContactService) Submit(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error) {
	return m.SubmitFunc(ctx, sub)
}

// MockNewsletterService implements NewsletterServiceInterface for testing
type MockNewsletterService struct {
	SubscribeFunc   func(ctx context.Context, email, name, ipAddress string) (*models.NewsletterSubscription, bool, error)
	UnsubscribeFunc func(ctx context.Context, token string) error
}

func (m *MockNewsletterService) Subscribe(ctx context.Context, email, name, ipAddress string) (*models.NewsletterSubscription, bool, error) {
	return m.SubscribeFunc(ctx, email, name, ipAddress)
}

func (m *MockNewsletterService) Unsubscribe(ctx context.Context, token string) error {
	return m.UnsubscribeFunc(ctx, token)
}

// MockBlogService implements BlogServiceInterface for testing
type MockBlogService struct {
	ListPublishedFunc  func(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error)
	GetPublishedFunc   func(ctx context.Context, id, viewerIP string) (*models.BlogPost, error)
	CategoryCountsFunc func(ctx context.Context) ([]models.CategoryCount, error)
	GetFunc            func(ctx context.Context, id string) (*models.BlogPost, error)
	CreateFunc         func(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error)
	UpdateFunc         func(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error)
	DeleteFunc         func(ctx context.Context, id string) error
}

func (m *MockBlogService) ListPublished(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error) {
	return m.ListPublishedFunc(ctx, filter)
}

func (m *MockBlogService) GetPublished(ctx context.Context, id, viewerIP string) (*models.BlogPost, error) {
	return m.GetPublishedFunc(ctx, id, viewerIP)
}

func (m *MockBlogService) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	return m.CategoryCountsFunc(ctx)
}

func (m *MockBlogService) Get(ctx context.Context, id string) (*models.BlogPost, error) {
	return m.GetFunc(ctx, id)
}

func (m *MockBlogService) Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	return m.CreateFunc(ctx, post)
}

func (m *MockBlogService) Update(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error) {
	return m.UpdateFunc(ctx, id, post)
}

func (m *MockBlogService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc       func(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error)
	RefreshFunc     func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc      func(ctx context.Context, refreshToken string)
	MeFunc          func(ctx context.Context, userID string) (*services.UserResponse, error)
	SetupTOTPFunc   func(ctx context.Context, userID string) (*services.TOTPSetupResponse, error)
	ConfirmTOTPFunc func(ctx context.Context, userID, code string) error
	DisableTOTPFunc func(ctx context.Context, userID, code string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error) {
	return m.LoginFunc(ctx, email, password, totpCode)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, refreshToken)
	}
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*services.UserResponse, error) {
	return m.MeFunc(ctx, userID)
}

func (m *MockAuthService) SetupTOTP(ctx context.Context, userID string) (*services.TOTPSetupResponse, error) {
	return m.SetupTOTPFunc(ctx, userID)
}

func (m *MockAuthService) ConfirmTOTP(ctx context.Context, userID, code string) error {
	return m.ConfirmTOTPFunc(ctx, userID, code)
}

func (m *MockAuthService) DisableTOTP(ctx context.Context, userID, code string) error {
	return m.DisableTOTPFunc(ctx, userID, code)
}

// MockAdminContactRepo implements AdminContactRepository for testing
type MockAdminContactRepo struct {
	ListFunc          func(ctx context.Context, unprocessedOnly bool, limit, offset int) ([]*models.Contact, error)
	CountFunc         func(ctx context.Context, unprocessedOnly bool) (int, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.Contact, error)
	MarkProcessedFunc func(ctx context.Context, id, adminEmail, notes string) (*models.Contact, error)
}

func (m *MockAdminContactRepo) List(ctx context.Context, unprocessedOnly bool, limit, offset int) ([]*models.Contact, error) {
	return m.ListFunc(ctx, unprocessedOnly, limit, offset)
}

func (m *MockAdminContactRepo) Count(ctx context.Context, unprocessedOnly bool) (int, error) {
	return m.CountFunc(ctx, unprocessedOnly)
}

func (m *MockAdminContactRepo) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockAdminContactRepo) MarkProcessed(ctx context.Context, id, adminEmail, notes string) (*models.Contact, error) {
	return m.MarkProcessedFunc(ctx, id, adminEmail, notes)
}

// MockAdminNewsletterRepo implements AdminNewsletterRepository for testing
type MockAdminNewsletterRepo struct {
	ListActiveFunc  func(ctx context.Context, limit, offset int) ([]*models.NewsletterSubscription, error)
	CountActiveFunc func(ctx context.Context) (int, error)
}

func (m *MockAdminNewsletterRepo) ListActive(ctx context.Context, limit, offset int) ([]*models.NewsletterSubscription, error) {
	return m.ListActiveFunc(ctx, limit, offset)
}

func (m *MockAdminNewsletterRepo) CountActive(ctx context.Context) (int, error) {
	return m.CountActiveFunc(ctx)
}

// MockAdminSiteVisitRepo implements AdminSiteVisitRepository for testing
type MockAdminSiteVisitRepo struct {
	CountSinceFunc func(ctx context.Context, since time.Time) (int, int, error)
}

func (m *MockAdminSiteVisitRepo) CountSince(ctx context.Context, since time.Time) (int, int, error) {
	return m.CountSinceFunc(ctx, since)
}

// MockAbuseCounterResetter implements AbuseCounterResetter for testing
type MockAbuseCounterResetter struct {
	ResetIPFunc func(ctx context.Context, ip string) error
}

func (m *MockAbuseCounterResetter) ResetIP(ctx context.Context, ip string) error {
	if m.ResetIPFunc != nil {
		return m.ResetIPFunc(ctx, ip)
	}
	return nil
}

// MockBlockAdminController implements BlockAdminController for testing
type MockBlockAdminController struct {
	StatusFunc           func(ctx context.Context, ip string) (*models.BlockStatus, error)
	BlockPermanentlyFunc func(ctx context.Context, ip, reason string) error
	UnblockFunc          func(ctx context.Context, ip string) error
}

func (m *MockBlockAdminController) Status(ctx context.Context, ip string) (*models.BlockStatus, error) {
	return m.StatusFunc(ctx, ip)
}

func (m *MockBlockAdminController) BlockPermanently(ctx context.Context, ip, reason string) error {
	return m.BlockPermanentlyFunc(ctx, ip, reason)
}

func (m *MockBlockAdminController) Unblock(ctx context.Context, ip string) error {
	return m.UnblockFunc(ctx, ip)
}
