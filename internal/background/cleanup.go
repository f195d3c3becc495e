package background

import (
	"context"
	"log/slog"
	"time"
)

// TokenCleaner removes expired revoked tokens
type TokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// VisitCleaner removes site visit rows older than a cutoff
type VisitCleaner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically purges expired revoked tokens and site visit
// rows past the retention window
type CleanupManager struct {
	tokens         TokenCleaner
	visits         VisitCleaner
	visitRetention time.Duration
	logger         *slog.Logger
	interval       time.Duration
	stopCh         chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	tokens TokenCleaner,
	visits VisitCleaner,
	visitRetention time.Duration,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		tokens:         tokens,
		visits:         visits,
		visitRetention: visitRetention,
		logger:         logger,
		interval:       interval,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tokensDeleted, err := cm.tokens.CleanupExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
	} else if tokensDeleted > 0 {
		cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", tokensDeleted))
	}

	cutoff := time.Now().Add(-cm.visitRetention)
	visitsDeleted, err := cm.visits.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup old site visits", slog.Any("error", err))
	} else if visitsDeleted > 0 {
		cm.logger.Info("site visit cleanup completed",
			slog.Int64("rows_deleted", visitsDeleted), slog.Time("cutoff", cutoff))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
