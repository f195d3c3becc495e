package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/researcherhojin/emelmujiro/internal/models"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

// VisitRecorder persists site visit rows
type VisitRecorder interface {
	Record(ctx context.Context, visit *models.SiteVisit) error
}

// TrackVisits writes an access-log row for public GET requests. Recording
// happens off the request goroutine: a slow or failing insert never delays
// the response.
func TrackVisits(visits VisitRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && trackablePath(r.URL.Path) {
				visit := &models.SiteVisit{
					IPAddress: pkghttp.ClientIP(r),
					UserAgent: r.UserAgent(),
					Referer:   r.Referer(),
					PagePath:  r.URL.Path,
					VisitTime: time.Now(),
				}
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := visits.Record(ctx, visit); err != nil {
						logger.Error("failed to record site visit", slog.Any("error", err))
					}
				}()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// trackablePath excludes administrative traffic and probes from the stats
func trackablePath(path string) bool {
	return path != "/health" && !strings.HasPrefix(path, "/api/admin") && !strings.HasPrefix(path, "/api/auth")
}
