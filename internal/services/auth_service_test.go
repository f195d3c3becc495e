package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/models"
	pkgauth "github.com/researcherhojin/emelmujiro/pkg/auth"
)

func newTestAuthService(users UserRepository, revocation TokenRevocationRepository) *AuthService {
	tm := auth.NewTokenManager("test-secret-long-enough-for-hs256", 15*time.Minute, 7*24*time.Hour)
	totp := auth.NewTOTPManager("emelmujiro-test")
	return NewAuthService(users, revocation, tm, totp, testLogger())
}

func seededUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Name:         "관리자",
		Role:         "admin",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	user := seededUser(t, "correct-horse-battery")
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "admin@example.com", email)
			return user, nil
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})

	resp, err := svc.Login(context.Background(), " Admin@Example.com ", "correct-horse-battery", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "admin", resp.User.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	user := seededUser(t, "correct-horse-battery")
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Login_TOTPRequiredWhenEnrolled(t *testing.T) {
	user := seededUser(t, "correct-horse-battery")
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	user.TOTPSecret = &secret
	user.TOTPVerified = true

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})

	// Correct password but missing or wrong code fails the same way
	_, err := svc.Login(context.Background(), "admin@example.com", "correct-horse-battery", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = svc.Login(context.Background(), "admin@example.com", "correct-horse-battery", "000000")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Refresh_RotatesAndRevokes(t *testing.T) {
	user := seededUser(t, "pw")
	revokedJTIs := map[string]bool{}

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	revocation := &MockTokenRevocationRepository{
		RevokeFunc: func(ctx context.Context, jti, userID string, expiresAt time.Time) error {
			revokedJTIs[jti] = true
			return nil
		},
		IsRevokedFunc: func(ctx context.Context, jti string) (bool, error) {
			return revokedJTIs[jti], nil
		},
	}
	svc := newTestAuthService(users, revocation)
	ctx := context.Background()

	login, err := svc.Login(ctx, "admin@example.com", "pw", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Replaying the first refresh token fails: its JTI is denylisted
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	user := seededUser(t, "pw")
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})
	ctx := context.Background()

	login, err := svc.Login(ctx, "admin@example.com", "pw", "")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_SetupAndConfirmTOTP(t *testing.T) {
	user := seededUser(t, "pw")
	var storedSecret string

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			u := *user
			if storedSecret != "" {
				u.TOTPSecret = &storedSecret
			}
			return &u, nil
		},
		SetTOTPSecretFunc: func(ctx context.Context, id, secret string) error {
			storedSecret = secret
			return nil
		},
		ConfirmTOTPFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})
	ctx := context.Background()

	setup, err := svc.SetupTOTP(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.QRCodeURL, "data:image/png;base64,")
	assert.Equal(t, setup.Secret, storedSecret)

	// A wrong code does not activate the factor
	err = svc.ConfirmTOTP(ctx, "user-1", "000000")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_SetupTOTP_AlreadyEnrolled(t *testing.T) {
	user := seededUser(t, "pw")
	secret := "EXISTING"
	user.TOTPSecret = &secret
	user.TOTPVerified = true

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestAuthService(users, &MockTokenRevocationRepository{})

	_, err := svc.SetupTOTP(context.Background(), "user-1")
	assert.ErrorIs(t, err, models.ErrConflict)
}
