package handlers

import (
	"context"
	"net/http"

	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker reports whether the database is reachable
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service health including its backing stores
type HealthHandler struct {
	db    DatabaseChecker
	cache Pinger
}

func NewHealthHandler(db DatabaseChecker, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := map[string]string{"status": "ok", "database": "ok", "cache": "ok"}
	code := http.StatusOK

	if err := h.db.HealthCheck(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		status["status"] = "degraded"
		status["cache"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	pkghttp.WriteJSON(w, code, status)
}
