package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

// RateLimitConfig holds the per-IP limit for credential endpoints
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DefaultAuthRateLimit allows 5 attempts per minute per IP. Tighter than the
// global ceiling because login and refresh are brute-force targets.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{Requests: 5, Window: 1 * time.Minute}
}

// RateLimitByIP limits requests per client IP within the window
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
		}),
	)
}
