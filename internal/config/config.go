package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	Captcha  CaptchaConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	CleanupInterval    time.Duration
	TOTPIssuer         string
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	AdminEmail  string
	SendTimeout time.Duration
}

// CaptchaConfig controls reCAPTCHA verification for contact submissions.
// Enabled is an explicit flag rather than being inferred from the secret's
// presence, so a missing secret in production fails loudly instead of
// silently disabling the check.
type CaptchaConfig struct {
	Enabled   bool
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

type SecurityConfig struct {
	TempBlockDuration    time.Duration
	StrikeRetention      time.Duration
	StrikeReviewThreshold int
	GlobalRateLimit      int           // requests per IP per GlobalRateWindow, all routes
	GlobalRateWindow     time.Duration
	ContactIPLimit       int           // contact submissions per IP per ContactIPWindow
	ContactIPWindow      time.Duration
	ContactEmailLimit    int           // contact submissions per email per ContactEmailWindow
	ContactEmailWindow   time.Duration
	PermanentBlocklist   []string      // statically configured permanently blocked IPs
	VisitRetention       time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "emelmujiro"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", env != "production"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			TOTPIssuer:         getEnv("TOTP_ISSUER", "emelmujiro"),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "ap-northeast-2"),
			FromAddress: getEnv("EMAIL_FROM", "no-reply@emelmujiro.com"),
			AdminEmail:  getEnv("ADMIN_NOTIFY_EMAIL", ""),
			SendTimeout: getEnvAsDuration("EMAIL_SEND_TIMEOUT", 10*time.Second),
		},
		Captcha: CaptchaConfig{
			Enabled:   getEnvAsBool("CAPTCHA_ENABLED", false),
			Secret:    getEnv("RECAPTCHA_SECRET", ""),
			VerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			Timeout:   getEnvAsDuration("RECAPTCHA_TIMEOUT", 10*time.Second),
		},
		Security: SecurityConfig{
			TempBlockDuration:     getEnvAsDuration("TEMP_BLOCK_DURATION", 1*time.Hour),
			StrikeRetention:       getEnvAsDuration("STRIKE_RETENTION", 24*time.Hour),
			StrikeReviewThreshold: getEnvAsInt("STRIKE_REVIEW_THRESHOLD", 3),
			GlobalRateLimit:       getEnvAsInt("GLOBAL_RATE_LIMIT", 100),
			GlobalRateWindow:      getEnvAsDuration("GLOBAL_RATE_WINDOW", 1*time.Hour),
			ContactIPLimit:        getEnvAsInt("CONTACT_IP_LIMIT", 3),
			ContactIPWindow:       getEnvAsDuration("CONTACT_IP_WINDOW", 1*time.Hour),
			ContactEmailLimit:     getEnvAsInt("CONTACT_EMAIL_LIMIT", 2),
			ContactEmailWindow:    getEnvAsDuration("CONTACT_EMAIL_WINDOW", 24*time.Hour),
			PermanentBlocklist:    parseList(getEnv("PERMANENT_BLOCKLIST", "")),
			VisitRetention:        getEnvAsDuration("VISIT_RETENTION", 90*24*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	// Fail loudly rather than silently skipping the check
	if cfg.Captcha.Enabled && cfg.Captcha.Secret == "" {
		return nil, fmt.Errorf("RECAPTCHA_SECRET is required when CAPTCHA_ENABLED is true")
	}

	if cfg.Email.AdminEmail == "" && env == "production" {
		return nil, fmt.Errorf("ADMIN_NOTIFY_EMAIL is required in production")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		return parseList(originsStr)
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
