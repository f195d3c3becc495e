package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/database"
	"github.com/researcherhojin/emelmujiro/internal/handlers"
	"github.com/researcherhojin/emelmujiro/internal/middleware"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
	"github.com/researcherhojin/emelmujiro/internal/routes"
	"github.com/researcherhojin/emelmujiro/internal/security"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkglogger "github.com/researcherhojin/emelmujiro/pkg/logger"
)

// MockEmailService captures admin notifications for test assertions
type MockEmailService struct {
	mu       sync.Mutex
	Notified []*models.Contact
}

// SendContactNotification records the contact instead of sending mail
func (m *MockEmailService) SendContactNotification(ctx context.Context, contact *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, contact)
	return nil
}

// LastNotification returns the most recent captured notification
func (m *MockEmailService) LastNotification() *models.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Notified) == 0 {
		return nil
	}
	return m.Notified[len(m.Notified)-1]
}

// NotificationCount returns how many notifications were sent
func (m *MockEmailService) NotificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notified)
}

// TestServer wraps httptest.Server with a real database, an in-memory
// counter store and a mocked email service
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	Store        *cache.MemoryStore
	EmailService *MockEmailService
	TokenManager *auth.TokenManager
	Config       *config.Config

	logger *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database and
// the full middleware chain, CAPTCHA disabled and email mocked
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			LogLevel:       "warn",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			CleanupInterval:    1 * time.Hour,
			TOTPIssuer:         "emelmujiro-test",
		},
		Security: config.SecurityConfig{
			TempBlockDuration:     1 * time.Hour,
			StrikeRetention:       24 * time.Hour,
			StrikeReviewThreshold: 3,
			GlobalRateLimit:       100,
			GlobalRateWindow:      1 * time.Hour,
			ContactIPLimit:        3,
			ContactIPWindow:       1 * time.Hour,
			ContactEmailLimit:     2,
			ContactEmailWindow:    24 * time.Hour,
			VisitRetention:        90 * 24 * time.Hour,
		},
	}

	store := cache.NewMemoryStore()
	auditLogger := pkglogger.NewAuditLogger(logger)
	blocks := security.NewBlockController(store, &cfg.Security, auditLogger)
	ledger := services.NewAbuseLedger(store, &cfg.Security, logger)
	gate := middleware.NewSecurityGate(blocks, ledger, security.NewPatternMatcher(), auditLogger)

	contactRepo := repositories.NewContactRepository(db)
	newsletterRepo := repositories.NewNewsletterRepository(db)
	blogRepo := repositories.NewBlogRepository(db)
	userRepo := repositories.NewUserRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)
	visitRepo := repositories.NewSiteVisitRepository(db)

	mockEmail := &MockEmailService{}

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)

	contactService := services.NewContactService(
		contactRepo, ledger, services.NoopCaptchaVerifier{}, mockEmail, logger, auditLogger)
	newsletterService := services.NewNewsletterService(newsletterRepo, logger)
	blogService := services.NewBlogService(blogRepo, store, logger)
	authService := services.NewAuthService(userRepo, revokeRepo, tokenManager, totpManager, logger)

	h := routes.Handlers{
		Contact:    handlers.NewContactHandler(contactService),
		Newsletter: handlers.NewNewsletterHandler(newsletterService),
		Blog:       handlers.NewBlogHandler(blogService),
		Auth:       handlers.NewAuthHandler(authService),
		Admin:      handlers.NewAdminHandler(contactRepo, newsletterRepo, visitRepo, blocks, ledger, auditLogger),
		Health:     handlers.NewHealthHandler(db, store),
	}

	// Same chain as production, minus CORS and visit tracking: visits write
	// from a detached goroutine and would race table truncation between tests
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(gate.Handler)
	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, h, tokenManager, userRepo, revokeRepo)

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		DB:           db,
		Store:        store,
		EmailService: mockEmail,
		TokenManager: tokenManager,
		Config:       cfg,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// ResetCounters clears the in-memory store so abuse ceilings and blocks from
// one test do not leak into the next
func (ts *TestServer) ResetCounters() {
	ts.Store.Flush()
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	return ts.Request(method, path, body, headers)
}

// Login authenticates against the real login endpoint and returns the token
// pair for use in subsequent requests
func (ts *TestServer) Login(email, password string) (accessToken, refreshToken string, err error) {
	resp, err := ts.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var loginResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", "", err
	}
	if access, ok := loginResp["access_token"].(string); ok {
		accessToken = access
	}
	if refresh, ok := loginResp["refresh_token"].(string); ok {
		refreshToken = refresh
	}
	return accessToken, refreshToken, nil
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts the error message from an error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["error"].(string); ok {
		return msg, nil
	}
	return "", nil
}
