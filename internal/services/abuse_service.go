package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/models"
)

const (
	globalCountKeyPrefix  = "abuse:global:"
	contactIPKeyPrefix    = "abuse:ip:"
	contactEmailKeyPrefix = "abuse:email:"
)

// AbuseLedger tracks request volume per identity (IP or email) in fixed
// windows backed by the shared cache store. Attempts count whether they
// end in acceptance or rejection: rejection does not grant a retry.
//
// Store failures fail open: a broken Redis must not take the site down.
// Every fail-open is logged so the gap is visible.
type AbuseLedger struct {
	store  cache.Store
	cfg    *config.SecurityConfig
	logger *slog.Logger
}

func NewAbuseLedger(store cache.Store, cfg *config.SecurityConfig, logger *slog.Logger) *AbuseLedger {
	return &AbuseLedger{store: store, cfg: cfg, logger: logger}
}

// CountGlobal counts the request against the per-IP global ceiling and
// reports whether it is still within the limit. Every request counts,
// allowed or not.
func (l *AbuseLedger) CountGlobal(ctx context.Context, ip string) (bool, error) {
	count, err := l.store.Incr(ctx, globalCountKeyPrefix+ip, l.cfg.GlobalRateWindow)
	if err != nil {
		l.logger.Error("abuse ledger unavailable, failing open",
			slog.String("ip_address", ip), slog.Any("error", err))
		return true, nil
	}
	return count <= int64(l.cfg.GlobalRateLimit), nil
}

// RecordContactAttempt counts one contact submission attempt against both
// the per-IP and per-email ceilings and reports whether either is now
// exceeded. The attempt is recorded even when the answer is a rejection.
func (l *AbuseLedger) RecordContactAttempt(ctx context.Context, ip, email string) error {
	ipCount, err := l.store.Incr(ctx, contactIPKeyPrefix+ip, l.cfg.ContactIPWindow)
	if err != nil {
		l.logger.Error("abuse ledger unavailable, failing open",
			slog.String("ip_address", ip), slog.Any("error", err))
		return nil
	}
	if ipCount > int64(l.cfg.ContactIPLimit) {
		return models.ErrRateLimitExceeded
	}

	emailCount, err := l.store.Incr(ctx, contactEmailKeyPrefix+normalizeEmail(email), l.cfg.ContactEmailWindow)
	if err != nil {
		l.logger.Error("abuse ledger unavailable, failing open",
			slog.String("ip_address", ip), slog.Any("error", err))
		return nil
	}
	if emailCount > int64(l.cfg.ContactEmailLimit) {
		return models.ErrRateLimitExceeded
	}

	return nil
}

// ResetIP clears the IP's rate counters. Used by admin force-unblock so a
// lifted block does not leave the IP immediately rate limited.
func (l *AbuseLedger) ResetIP(ctx context.Context, ip string) error {
	return l.store.Delete(ctx, globalCountKeyPrefix+ip, contactIPKeyPrefix+ip)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
