package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/researcherhojin/emelmujiro/internal/security"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
	pkglogger "github.com/researcherhojin/emelmujiro/pkg/logger"
)

// Bodies larger than this are not pattern-scanned in full; the contact form
// caps out far below this anyway
const maxScannedBodyBytes = 64 * 1024

// SecurityGate is the outermost defense for every API request:
//
//  1. blocked IPs get 403 before any work happens
//  2. the global per-IP ceiling returns 429
//  3. malicious patterns in path, query or body trigger an immediate
//     temporary block plus 403
//
// Offenders always receive generic responses; detail goes to the audit log.
type SecurityGate struct {
	blocks  *security.BlockController
	ledger  *services.AbuseLedger
	matcher *security.PatternMatcher
	audit   *pkglogger.AuditLogger
}

func NewSecurityGate(
	blocks *security.BlockController,
	ledger *services.AbuseLedger,
	matcher *security.PatternMatcher,
	audit *pkglogger.AuditLogger,
) *SecurityGate {
	return &SecurityGate{
		blocks:  blocks,
		ledger:  ledger,
		matcher: matcher,
		audit:   audit,
	}
}

func (g *SecurityGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := pkghttp.ClientIP(r)

		blocked, err := g.blocks.IsBlocked(r.Context(), ip)
		if err == nil && blocked {
			g.audit.LogDenial(pkglogger.SecurityEvent{
				EventType: "ip_blocked",
				IPAddress: ip,
				Path:      r.URL.Path,
			})
			pkghttp.WriteForbidden(w, "access denied")
			return
		}

		allowed, err := g.ledger.CountGlobal(r.Context(), ip)
		if err == nil && !allowed {
			g.audit.LogDenial(pkglogger.SecurityEvent{
				EventType: "rate_limited",
				IPAddress: ip,
				Path:      r.URL.Path,
			})
			pkghttp.WriteTooManyRequests(w, "too many requests")
			return
		}

		body := g.readBody(r)

		if rule, hit := g.matcher.MatchAny(r.URL.Path, r.URL.RawQuery, body); hit {
			// Block first so the next request from this IP is refused even
			// if audit logging fails
			if err := g.blocks.Block(r.Context(), ip, rule); err != nil {
				g.audit.LogSecurityViolation(pkglogger.SecurityEvent{
					EventType: "block_failed",
					IPAddress: ip,
					Path:      r.URL.Path,
					Reason:    err.Error(),
				})
			}
			g.audit.LogSecurityViolation(pkglogger.SecurityEvent{
				EventType: "malicious_pattern",
				IPAddress: ip,
				Path:      r.URL.Path,
				Reason:    rule,
			})
			pkghttp.WriteForbidden(w, "access denied")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// readBody scans at most maxScannedBodyBytes and leaves the full body
// readable for the handler.
func (g *SecurityGate) readBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	limited := io.LimitReader(r.Body, maxScannedBodyBytes)
	scanned, err := io.ReadAll(limited)
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(scanned))
		return string(scanned)
	}

	rest, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(append(scanned, rest...)))

	return string(scanned)
}
