package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-perfectly-reasonable-test-secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-perfectly-reasonable-test-secret")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoad_RejectsWeakJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "only-twenty-chars-xx") // fine for dev, too short for prod
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("ADMIN_NOTIFY_EMAIL", "admin@emelmujiro.com")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CaptchaEnabledRequiresSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CAPTCHA_ENABLED", "true")
	t.Setenv("RECAPTCHA_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RECAPTCHA_SECRET")
}

func TestLoad_SecurityDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1*time.Hour, cfg.Security.TempBlockDuration)
	assert.Equal(t, 24*time.Hour, cfg.Security.StrikeRetention)
	assert.Equal(t, 3, cfg.Security.StrikeReviewThreshold)
	assert.Equal(t, 100, cfg.Security.GlobalRateLimit)
	assert.Equal(t, 3, cfg.Security.ContactIPLimit)
	assert.Equal(t, 1*time.Hour, cfg.Security.ContactIPWindow)
	assert.Equal(t, 2, cfg.Security.ContactEmailLimit)
	assert.Equal(t, 24*time.Hour, cfg.Security.ContactEmailWindow)
	assert.False(t, cfg.Captcha.Enabled)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONTACT_IP_LIMIT", "5")
	t.Setenv("TEMP_BLOCK_DURATION", "30m")
	t.Setenv("PERMANENT_BLOCKLIST", "203.0.113.1, 203.0.113.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Security.ContactIPLimit)
	assert.Equal(t, 30*time.Minute, cfg.Security.TempBlockDuration)
	assert.Equal(t, []string{"203.0.113.1", "203.0.113.2"}, cfg.Security.PermanentBlocklist)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "pw", Name: "emelmujiro", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pw dbname=emelmujiro sslmode=disable",
		cfg.DSN())
}
