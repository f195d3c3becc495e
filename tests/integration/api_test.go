package integration

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB *TestDB
	ts     *TestServer
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(0)
	}

	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}

	ts = NewTestServer(testDB.DB)

	code := m.Run()

	ts.Close()
	if err := testDB.Teardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to tear down test database: %v\n", err)
	}
	os.Exit(code)
}

// resetState gives each test a clean database and empty counter store
func resetState(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	ts.ResetCounters()
	ts.EmailService.mu.Lock()
	ts.EmailService.Notified = nil
	ts.EmailService.mu.Unlock()
}

func TestHealthEndpoint(t *testing.T) {
	resetState(t)

	resp, err := ts.Request(http.MethodGet, "/health", nil, nil)
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "ok", body["cache"])
}

func TestContactSubmission(t *testing.T) {
	resetState(t)

	email := TestEmail("contact")
	resp, err := ts.Request(http.MethodPost, "/api/contact", ContactBody(email), nil)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &body))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"])

	// Row persisted with the submitted fields
	var storedEmail, storedSubject string
	err = testDB.Pool.QueryRow(context.Background(),
		"SELECT email, subject FROM contacts WHERE id = $1", body["id"]).
		Scan(&storedEmail, &storedSubject)
	require.NoError(t, err)
	assert.Equal(t, email, storedEmail)
	assert.Equal(t, "기업 AI 교육 문의", storedSubject)

	// Admin was notified
	require.Equal(t, 1, ts.EmailService.NotificationCount())
	assert.Equal(t, email, ts.EmailService.LastNotification().Email)
}

func TestContactSubmission_EmailCeiling(t *testing.T) {
	resetState(t)

	email := TestEmail("repeat")

	for i := 0; i < 2; i++ {
		resp, err := ts.Request(http.MethodPost, "/api/contact", ContactBody(email), nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode, "submission %d within the ceiling", i+1)
	}

	// Third submission from the same address is over the per-email ceiling
	resp, err := ts.Request(http.MethodPost, "/api/contact", ContactBody(email), nil)
	require.NoError(t, err)
	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, msg, "요청이 너무 많습니다")
}

func TestContactSubmission_RejectedAttemptsConsumeIPAllowance(t *testing.T) {
	resetState(t)

	// Three attempts from this IP, the third rejected by the email ceiling
	email := TestEmail("burn")
	for i := 0; i < 3; i++ {
		resp, err := ts.Request(http.MethodPost, "/api/contact", ContactBody(email), nil)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// A fresh email does not help: the rejected attempt counted against the
	// per-IP ceiling too
	resp, err := ts.Request(http.MethodPost, "/api/contact", ContactBody(TestEmail("fresh")), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestContactSubmission_ValidationErrors(t *testing.T) {
	resetState(t)

	body := ContactBody(TestEmail("invalid"))
	body["email"] = "not-an-email"

	resp, err := ts.Request(http.MethodPost, "/api/contact", body, nil)
	require.NoError(t, err)

	var errResp map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &errResp))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	details, ok := errResp["details"].(map[string]interface{})
	require.True(t, ok, "validation errors carry a details map")
	assert.Contains(t, details, "email")

	// Nothing was stored or notified
	var count int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM contacts").Scan(&count))
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, ts.EmailService.NotificationCount())
}

func TestNewsletterLifecycle(t *testing.T) {
	resetState(t)

	email := TestEmail("news")
	body := map[string]string{"email": email, "name": "이영희"}

	// Subscribe
	resp, err := ts.Request(http.MethodPost, "/api/newsletter", body, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Subscribing again while active succeeds quietly
	resp, err = ts.Request(http.MethodPost, "/api/newsletter", body, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unsubscribe via the stored token
	var token string
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT unsubscribe_token FROM newsletter_subscriptions WHERE email = $1", email).
		Scan(&token))

	resp, err = ts.Request(http.MethodGet, "/api/newsletter/unsubscribe?token="+token, nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Subscribing once more reactivates the existing record
	resp, err = ts.Request(http.MethodPost, "/api/newsletter", body, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var active bool
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT is_active FROM newsletter_subscriptions WHERE email = $1", email).
		Scan(&active))
	assert.True(t, active)
}

func TestNewsletterUnsubscribe_UnknownToken(t *testing.T) {
	resetState(t)

	resp, err := ts.Request(http.MethodGet, "/api/newsletter/unsubscribe?token=no-such-token", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginAndAdminDashboard(t *testing.T) {
	resetState(t)

	email, password := TestAdmin("dashboard")
	_, err := SeedUser(context.Background(), testDB.Pool, email, password, "admin")
	require.NoError(t, err)

	access, refresh, err := ts.Login(email, password)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	resp, err := ts.RequestWithAuth(http.MethodGet, "/api/admin/dashboard", access, nil)
	require.NoError(t, err)

	var stats map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &stats))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, stats, "unprocessed_contacts")
	assert.Contains(t, stats, "active_subscribers")
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	resetState(t)

	user, err := SeedUser(context.Background(), testDB.Pool, TestEmail("viewer"), "ViewerPassword123!", "user")
	require.NoError(t, err)

	access, err := ts.TokenManager.GenerateAccessToken(user)
	require.NoError(t, err)

	resp, err := ts.RequestWithAuth(http.MethodGet, "/api/admin/contacts", access, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// No token at all
	resp, err = ts.Request(http.MethodGet, "/api/admin/contacts", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminBlockLifecycle(t *testing.T) {
	resetState(t)

	admin, err := SeedUser(context.Background(), testDB.Pool, TestEmail("blocker"), "AdminPassword123!", "admin")
	require.NoError(t, err)
	access, err := ts.TokenManager.GenerateAccessToken(admin)
	require.NoError(t, err)

	const target = "198.51.100.23"

	// Block an IP
	resp, err := ts.RequestWithAuth(http.MethodPost, "/api/admin/blocks", access, map[string]string{
		"ip":     target,
		"reason": "scraping",
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/admin/blocks/"+target, access, nil)
	require.NoError(t, err)
	var status map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &status))
	assert.Equal(t, true, status["permanently_blocked"])

	// Lift the block
	resp, err = ts.RequestWithAuth(http.MethodDelete, "/api/admin/blocks/"+target, access, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/admin/blocks/"+target, access, nil)
	require.NoError(t, err)
	require.NoError(t, ParseJSONResponse(resp, &status))
	assert.Equal(t, false, status["permanently_blocked"])
	assert.Equal(t, false, status["temporarily_blocked"])
}

func TestBlogPublicListing(t *testing.T) {
	resetState(t)

	ctx := context.Background()
	publishedID, err := SeedBlogPost(ctx, testDB.Pool, "파이썬으로 시작하는 머신러닝", "ml", true)
	require.NoError(t, err)
	_, err = SeedBlogPost(ctx, testDB.Pool, "작성 중인 초안", "ai", false)
	require.NoError(t, err)

	resp, err := ts.Request(http.MethodGet, "/api/blog/posts", nil, nil)
	require.NoError(t, err)

	var list struct {
		Posts []map[string]interface{} `json:"posts"`
		Total int                      `json:"total"`
	}
	require.NoError(t, ParseJSONResponse(resp, &list))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Posts, 1, "drafts stay hidden from the public listing")
	assert.Equal(t, publishedID, list.Posts[0]["id"])

	// Unpublished post is not reachable by ID either
	resp, err = ts.Request(http.MethodGet, "/api/blog/posts/"+publishedID, nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenRefreshRotation(t *testing.T) {
	resetState(t)

	email, password := TestAdmin("rotate")
	_, err := SeedUser(context.Background(), testDB.Pool, email, password, "admin")
	require.NoError(t, err)

	_, refresh, err := ts.Login(email, password)
	require.NoError(t, err)

	// First refresh succeeds and rotates the token
	resp, err := ts.Request(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	}, nil)
	require.NoError(t, err)
	var refreshed map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &refreshed))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, refreshed["access_token"])
	assert.NotEqual(t, refresh, refreshed["refresh_token"])

	// Replaying the consumed refresh token is rejected
	resp, err = ts.Request(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	}, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
