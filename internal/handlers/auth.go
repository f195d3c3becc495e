package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

// AuthServiceInterface defines the admin authentication operations
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string)
	Me(ctx context.Context, userID string) (*services.UserResponse, error)
	SetupTOTP(ctx context.Context, userID string) (*services.TOTPSetupResponse, error)
	ConfirmTOTP(ctx context.Context, userID, code string) error
	DisableTOTP(ctx context.Context, userID, code string) error
}

// AuthHandler handles admin authentication requests
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest represents the login request body. The TOTP code is required
// only for accounts with the second factor enabled.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code" validate:"omitempty,len=6,numeric"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TOTPCodeRequest carries a one-time code for confirm/disable operations
type TOTPCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "이메일 또는 비밀번호가 올바르지 않습니다.")
			return
		}
		pkghttp.WriteInternalError(w, "로그인 처리 중 오류가 발생했습니다.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "다시 로그인해주세요.")
			return
		}
		pkghttp.WriteInternalError(w, "토큰 갱신 중 오류가 발생했습니다.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		h.service.Logout(r.Context(), req.RefreshToken)
	}
	pkghttp.WriteMessage(w, http.StatusOK, "로그아웃되었습니다.")
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	user, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteUnauthorized(w, "authentication required")
			return
		}
		pkghttp.WriteInternalError(w, "failed to load profile")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// SetupTOTP handles POST /api/auth/totp/setup
func (h *AuthHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	resp, err := h.service.SetupTOTP(r.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "2단계 인증이 이미 활성화되어 있습니다.")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteUnauthorized(w, "authentication required")
		default:
			pkghttp.WriteInternalError(w, "2단계 인증 설정 중 오류가 발생했습니다.")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ConfirmTOTP handles POST /api/auth/totp/confirm
func (h *AuthHandler) ConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ConfirmTOTP(r.Context(), claims.UserID, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteBadRequest(w, "인증 코드가 올바르지 않습니다.")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "2단계 인증 설정을 먼저 시작해주세요.")
		default:
			pkghttp.WriteInternalError(w, "2단계 인증 확인 중 오류가 발생했습니다.")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "2단계 인증이 활성화되었습니다.")
}

// DisableTOTP handles POST /api/auth/totp/disable
func (h *AuthHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.DisableTOTP(r.Context(), claims.UserID, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteBadRequest(w, "인증 코드가 올바르지 않습니다.")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "2단계 인증이 활성화되어 있지 않습니다.")
		default:
			pkghttp.WriteInternalError(w, "2단계 인증 해제 중 오류가 발생했습니다.")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "2단계 인증이 해제되었습니다.")
}
