package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/researcherhojin/emelmujiro/internal/handlers"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/services"
)

func TestLogin_Success(t *testing.T) {
	mock := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error) {
			return &services.AuthResponse{
				AccessToken:  "access_token_123",
				RefreshToken: "refresh_token_123",
				User:         &services.UserResponse{Email: email, Role: "admin"},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "admin@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "refresh_token_123", resp.RefreshToken)
}

func TestLogin_PassesTOTPCode(t *testing.T) {
	var gotCode string
	mock := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error) {
			gotCode = totpCode
			return &services.AuthResponse{}, nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "admin@example.com",
		Password: "password123",
		TOTPCode: "123456",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "123456", gotCode)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mock := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "admin@example.com",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401)
}

func TestLogin_MalformedTOTPCodeRejectedBeforeService(t *testing.T) {
	called := false
	mock := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error) {
			called = true
			return nil, nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "admin@example.com",
		Password: "password123",
		TOTPCode: "abc",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400)
	assert.False(t, called)
}

func TestRefresh_Success(t *testing.T) {
	mock := &handlers.MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
			assert.Equal(t, "refresh_token_old", refreshToken)
			return &services.AuthResponse{
				AccessToken:  "access_token_new",
				RefreshToken: "refresh_token_new",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshRequest{
		RefreshToken: "refresh_token_old",
	})

	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "refresh_token_new", resp.RefreshToken)
}

func TestRefresh_Replayed(t *testing.T) {
	mock := &handlers.MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshRequest{
		RefreshToken: "replayed",
	})

	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	handlers.AssertErrorResponse(t, w, 401)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	revoked := false
	mock := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, refreshToken string) {
			revoked = true
		},
	}

	handler := handlers.NewAuthHandler(mock)

	// With a token: service is asked to revoke
	req := handlers.NewTestRequest(t, "POST", "/api/auth/logout", handlers.RefreshRequest{
		RefreshToken: "some-token",
	})
	w := httptest.NewRecorder()
	handler.Logout(w, req)
	assert.Equal(t, 200, w.Code)
	assert.True(t, revoked)

	// Without a body: still 200
	req = httptest.NewRequest("POST", "/api/auth/logout", nil)
	w = httptest.NewRecorder()
	handler.Logout(w, req)
	assert.Equal(t, 200, w.Code)
}

func TestMe_Success(t *testing.T) {
	mock := &handlers.MockAuthService{
		MeFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			return &services.UserResponse{ID: userID, Email: "admin@example.com", Role: "admin"}, nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.WithAuthContext(
		httptest.NewRequest("GET", "/api/auth/me", nil), "user-1", "admin@example.com", "admin")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	var resp services.UserResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "user-1", resp.ID)
}

func TestMe_NoClaims(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{})
	req := httptest.NewRequest("GET", "/api/auth/me", nil)

	w := httptest.NewRecorder()
	handler.Me(w, req)

	handlers.AssertErrorResponse(t, w, 401)
}

func TestSetupTOTP_Success(t *testing.T) {
	mock := &handlers.MockAuthService{
		SetupTOTPFunc: func(ctx context.Context, userID string) (*services.TOTPSetupResponse, error) {
			return &services.TOTPSetupResponse{Secret: "SECRET", QRCodeURL: "data:image/png;base64,xxx"}, nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.WithAuthContext(
		httptest.NewRequest("POST", "/api/auth/totp/setup", nil), "user-1", "admin@example.com", "admin")

	w := httptest.NewRecorder()
	handler.SetupTOTP(w, req)

	var resp services.TOTPSetupResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "SECRET", resp.Secret)
}

func TestSetupTOTP_AlreadyEnabled(t *testing.T) {
	mock := &handlers.MockAuthService{
		SetupTOTPFunc: func(ctx context.Context, userID string) (*services.TOTPSetupResponse, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.WithAuthContext(
		httptest.NewRequest("POST", "/api/auth/totp/setup", nil), "user-1", "admin@example.com", "admin")

	w := httptest.NewRecorder()
	handler.SetupTOTP(w, req)

	handlers.AssertErrorResponse(t, w, 409)
}

func TestConfirmTOTP_WrongCode(t *testing.T) {
	mock := &handlers.MockAuthService{
		ConfirmTOTPFunc: func(ctx context.Context, userID, code string) error {
			return models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.WithAuthContext(
		handlers.NewTestRequest(t, "POST", "/api/auth/totp/confirm", handlers.TOTPCodeRequest{Code: "000000"}),
		"user-1", "admin@example.com", "admin")

	w := httptest.NewRecorder()
	handler.ConfirmTOTP(w, req)

	handlers.AssertErrorResponse(t, w, 400)
}

func TestDisableTOTP_Success(t *testing.T) {
	var gotCode string
	mock := &handlers.MockAuthService{
		DisableTOTPFunc: func(ctx context.Context, userID, code string) error {
			gotCode = code
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mock)
	req := handlers.WithAuthContext(
		handlers.NewTestRequest(t, "POST", "/api/auth/totp/disable", handlers.TOTPCodeRequest{Code: "654321"}),
		"user-1", "admin@example.com", "admin")

	w := httptest.NewRecorder()
	handler.DisableTOTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "654321", gotCode)
}
