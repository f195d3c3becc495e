package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/researcherhojin/emelmujiro/internal/database"
	"github.com/researcherhojin/emelmujiro/internal/models"
)

type SiteVisitRepository struct {
	pool *pgxpool.Pool
}

func NewSiteVisitRepository(db *database.DB) *SiteVisitRepository {
	return &SiteVisitRepository{pool: db.Pool}
}

func (r *SiteVisitRepository) Record(ctx context.Context, visit *models.SiteVisit) error {
	visit.ID = uuid.New().String()
	if visit.VisitTime.IsZero() {
		visit.VisitTime = time.Now()
	}

	query := `
		INSERT INTO site_visits (id, ip_address, user_agent, referer, page_path, visit_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		visit.ID, visit.IPAddress, visit.UserAgent, visit.Referer, visit.PagePath, visit.VisitTime)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// CountSince returns total and unique-IP visit counts from the cutoff onward.
func (r *SiteVisitRepository) CountSince(ctx context.Context, since time.Time) (total int, uniqueIPs int, err error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT ip_address)
		FROM site_visits WHERE visit_time >= $1
	`
	if err := r.pool.QueryRow(ctx, query, since).Scan(&total, &uniqueIPs); err != nil {
		return 0, 0, database.MapPostgresError(err)
	}
	return total, uniqueIPs, nil
}

// DeleteOlderThan purges rows past the retention window.
func (r *SiteVisitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM site_visits WHERE visit_time < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
