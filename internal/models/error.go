package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Abuse-mitigation errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrSecurityViolation = errors.New("malicious request detected")
	ErrIPBlocked         = errors.New("ip address is blocked")

	// Contact pipeline errors
	ErrCaptchaFailed  = errors.New("captcha verification failed")
	ErrDeliveryFailed = errors.New("notification delivery failed")
)
