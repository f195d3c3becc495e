package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/models"
)

// CaptchaVerifier validates a client-supplied CAPTCHA token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RecaptchaVerifier checks tokens against the Google reCAPTCHA siteverify
// endpoint. Verification fails closed: if Google is unreachable or slow the
// submission is rejected, never waved through.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
	logger    *slog.Logger
}

func NewRecaptchaVerifier(cfg *config.CaptchaConfig, logger *slog.Logger) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

type recaptchaResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return models.ErrCaptchaFailed
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("captcha verification request failed", slog.Any("error", err))
		return models.ErrCaptchaFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("captcha verification returned non-200",
			slog.Int("status", resp.StatusCode))
		return models.ErrCaptchaFailed
	}

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.Error("captcha verification response unreadable", slog.Any("error", err))
		return models.ErrCaptchaFailed
	}

	if !result.Success {
		v.logger.Warn("captcha verification rejected",
			slog.String("error_codes", strings.Join(result.ErrorCodes, ",")))
		return models.ErrCaptchaFailed
	}
	return nil
}

// NoopCaptchaVerifier accepts every token. Used when CAPTCHA is disabled by
// configuration (development, tests).
type NoopCaptchaVerifier struct{}

func (NoopCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	return nil
}
