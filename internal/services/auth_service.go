package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/models"
	pkgauth "github.com/researcherhojin/emelmujiro/pkg/auth"
)

// UserRepository defines the user persistence operations auth needs
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetTOTPSecret(ctx context.Context, id, secret string) error
	ConfirmTOTP(ctx context.Context, id string) error
	ClearTOTP(ctx context.Context, id string) error
}

// TokenRevocationRepository defines the denylist operations auth needs
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService handles login, token rotation and the admin second factor
type AuthService struct {
	users      UserRepository
	revocation TokenRevocationRepository
	tm         *auth.TokenManager
	totp       *auth.TOTPManager
	logger     *slog.Logger
}

func NewAuthService(
	users UserRepository,
	revocation TokenRevocationRepository,
	tm *auth.TokenManager,
	totp *auth.TOTPManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		revocation: revocation,
		tm:         tm,
		totp:       totp,
		logger:     logger,
	}
}

// UserResponse represents a user in HTTP responses
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	TOTPEnabled bool   `json:"totp_enabled"`
	CreatedAt   string `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		TOTPEnabled: user.TOTPVerified,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

// Login authenticates with password plus, when enrolled, a TOTP code.
// Every failure path returns the same ErrUnauthorized so responses don't
// reveal which factor failed.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		return nil, models.ErrUnauthorized
	}

	if user.TOTPVerified && user.TOTPSecret != nil {
		valid, err := s.totp.ValidateCode(*user.TOTPSecret, totpCode)
		if err != nil || !valid {
			s.logger.Info("login failed: second factor rejected", slog.String("user_id", user.ID))
			return nil, models.ErrUnauthorized
		}
	}

	return s.issueTokens(user)
}

// Refresh rotates a refresh token: the old token is revoked and a fresh
// pair is issued. A replayed refresh token fails because its JTI is already
// denylisted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token revocation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		s.logger.Warn("refresh token replay detected", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.revocation.Revoke(ctx, claims.ID, user.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to revoke rotated token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.issueTokens(user)
}

// Logout revokes the presented refresh token. An invalid token is not an
// error: logout must always succeed from the client's perspective.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return
	}
	if err := s.revocation.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to revoke token on logout", slog.Any("error", err))
	}
}

// Me returns the current user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userModelToResponse(user), nil
}

// TOTPSetupResponse carries the enrollment material to the client once.
type TOTPSetupResponse struct {
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qr_code_url"`
}

// SetupTOTP generates a pending secret for the user. The secret becomes
// active only after ConfirmTOTP proves the authenticator works.
func (s *AuthService) SetupTOTP(ctx context.Context, userID string) (*TOTPSetupResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	if user.TOTPVerified {
		return nil, models.ErrConflict
	}

	secret, qrDataURL, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		s.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.users.SetTOTPSecret(ctx, userID, secret); err != nil {
		s.logger.Error("failed to store TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TOTPSetupResponse{Secret: secret, QRCodeURL: qrDataURL}, nil
}

// ConfirmTOTP activates the pending secret after a successful code check.
func (s *AuthService) ConfirmTOTP(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.ErrNotFound
	}

	if user.TOTPSecret == nil {
		return models.ErrBadRequest
	}

	valid, err := s.totp.ValidateCode(*user.TOTPSecret, code)
	if err != nil || !valid {
		return models.ErrUnauthorized
	}

	if err := s.users.ConfirmTOTP(ctx, userID); err != nil {
		s.logger.Error("failed to confirm TOTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("TOTP second factor enabled", slog.String("user_id", userID))
	return nil
}

// DisableTOTP removes the second factor after verifying a current code.
func (s *AuthService) DisableTOTP(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.ErrNotFound
	}

	if user.TOTPSecret == nil || !user.TOTPVerified {
		return models.ErrBadRequest
	}

	valid, err := s.totp.ValidateCode(*user.TOTPSecret, code)
	if err != nil || !valid {
		return models.ErrUnauthorized
	}

	if err := s.users.ClearTOTP(ctx, userID); err != nil {
		s.logger.Error("failed to disable TOTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("TOTP second factor disabled", slog.String("user_id", userID))
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}
