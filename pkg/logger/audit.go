package logger

import (
	"context"
	"log/slog"
	"time"
)

// SecurityEvent represents a security audit event. Full detail goes to the
// audit log only; responses to the offender stay generic.
type SecurityEvent struct {
	EventType string // e.g. "malicious_pattern", "rate_limited", "ip_blocked"
	IPAddress string
	Path      string
	Reason    string
	Metadata  map[string]string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogSecurityViolation logs a detected malicious request at error level
func (al *AuditLogger) LogSecurityViolation(event SecurityEvent) {
	al.log(slog.LevelError, "security_violation", event)
}

// LogDenial logs a request denial (block or rate limit) at warn level
func (al *AuditLogger) LogDenial(event SecurityEvent) {
	al.log(slog.LevelWarn, "denial", event)
}

// LogPermanentBlockReview emits the review signal for an IP that has been
// temporarily blocked three or more times inside the retention window.
// Permanent blocking stays a human decision; this only raises the flag.
func (al *AuditLogger) LogPermanentBlockReview(ip string, strikes int) {
	al.logger.LogAttrs(context.Background(), slog.LevelError, "permanent_block_review",
		slog.String("audit_type", "security"),
		slog.String("event_type", "permanent_block_review"),
		slog.String("ip_address", ip),
		slog.Int("strike_count", strikes),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// LogContactAttempt logs the outcome of a contact-form submission attempt
func (al *AuditLogger) LogContactAttempt(ip, email string, success bool, reason string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "contact"),
		slog.String("event_type", "contact_attempt"),
		slog.Bool("success", success),
		slog.String("ip_address", ip),
		slog.String("email", SanitizedEmail(email)),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogAdminAction logs administrative operations (force-unblock, bulk updates)
func (al *AuditLogger) LogAdminAction(eventType, actorID string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin"),
		slog.String("event_type", eventType),
		slog.String("actor_id", actorID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

func (al *AuditLogger) log(level slog.Level, msg string, event SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security"),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
