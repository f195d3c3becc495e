package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// The production CSP allowlists the frontend's external dependencies:
// Google reCAPTCHA, Google Fonts and the GitHub API used on the profile
// page. Development stays lenient for hot reloading.
const productionCSP = "default-src 'self'; " +
	"script-src 'self' https://www.google.com https://www.gstatic.com; " +
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
	"font-src 'self' https://fonts.gstatic.com; " +
	"img-src 'self' data: https:; " +
	"connect-src 'self' https://www.google.com https://api.github.com; " +
	"frame-src https://www.google.com; " +
	"frame-ancestors 'none'; " +
	"base-uri 'self'; " +
	"form-action 'self'"

const developmentCSP = "default-src 'self' http: https: ws:; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' http: https: ws:; " +
	"style-src 'self' 'unsafe-inline' http: https:; " +
	"img-src 'self' data: https: http:; " +
	"font-src 'self' data: http: https:; " +
	"connect-src 'self' http: https: ws: wss:; " +
	"frame-src https://www.google.com; " +
	"frame-ancestors 'self'; " +
	"base-uri 'self'; " +
	"form-action 'self'"

var lockedFeatures = []string{
	"accelerometer=()", "camera=()", "geolocation=()", "gyroscope=()",
	"magnetometer=()", "microphone=()", "payment=()", "usb=()",
}

// SecurityHeaders adds browser security headers to every response
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	production := config.Env == "production"
	csp := developmentCSP
	if production {
		csp = productionCSP
	}
	permissionsPolicy := strings.Join(lockedFeatures, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", csp)
			h.Set("Permissions-Policy", permissionsPolicy)
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")

			if production && (r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https") {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			// Don't advertise the server implementation
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}
