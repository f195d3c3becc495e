package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/researcherhojin/emelmujiro/internal/database"
	"github.com/researcherhojin/emelmujiro/internal/models"
)

type NewsletterRepository struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepository(db *database.DB) *NewsletterRepository {
	return &NewsletterRepository{pool: db.Pool}
}

const newsletterColumns = `id, email, name, is_active, subscribed_at, unsubscribed_at,
	unsubscribe_token, ip_address`

func scanSubscriptionRow(scanner rowScanner) (*models.NewsletterSubscription, error) {
	var sub models.NewsletterSubscription
	err := scanner.Scan(
		&sub.ID, &sub.Email, &sub.Name, &sub.IsActive,
		&sub.SubscribedAt, &sub.UnsubscribedAt,
		&sub.UnsubscribeToken, &sub.IPAddress,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &sub, nil
}

func (r *NewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	query := `SELECT ` + newsletterColumns + ` FROM newsletter_subscriptions WHERE email = $1`
	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, email))
}

func (r *NewsletterRepository) GetByToken(ctx context.Context, token string) (*models.NewsletterSubscription, error) {
	query := `SELECT ` + newsletterColumns + ` FROM newsletter_subscriptions WHERE unsubscribe_token = $1`
	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, token))
}

func (r *NewsletterRepository) Create(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
	sub.ID = uuid.New().String()

	query := `
		INSERT INTO newsletter_subscriptions (id, email, name, is_active, subscribed_at, unsubscribe_token, ip_address)
		VALUES ($1, $2, $3, TRUE, NOW(), $4, $5)
		RETURNING ` + newsletterColumns

	return scanSubscriptionRow(r.pool.QueryRow(ctx, query,
		sub.ID, sub.Email, sub.Name, sub.UnsubscribeToken, sub.IPAddress,
	))
}

// Reactivate flips an unsubscribed row back to active and refreshes the
// subscription timestamp. The unsubscribe token is rotated so old
// unsubscribe links stop working.
func (r *NewsletterRepository) Reactivate(ctx context.Context, id, newToken, ipAddress string) (*models.NewsletterSubscription, error) {
	query := `
		UPDATE newsletter_subscriptions
		SET is_active = TRUE, subscribed_at = NOW(), unsubscribed_at = NULL,
			unsubscribe_token = $2, ip_address = $3
		WHERE id = $1
		RETURNING ` + newsletterColumns

	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, id, newToken, ipAddress))
}

// DeactivateByToken marks the matching subscription inactive. Unsubscribing
// twice is a no-op, not an error.
func (r *NewsletterRepository) DeactivateByToken(ctx context.Context, token string) (*models.NewsletterSubscription, error) {
	query := `
		UPDATE newsletter_subscriptions
		SET is_active = FALSE,
			unsubscribed_at = COALESCE(unsubscribed_at, NOW())
		WHERE unsubscribe_token = $1
		RETURNING ` + newsletterColumns

	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, token))
}

func (r *NewsletterRepository) ListActive(ctx context.Context, limit, offset int) ([]*models.NewsletterSubscription, error) {
	query := `SELECT ` + newsletterColumns + `
		FROM newsletter_subscriptions WHERE is_active
		ORDER BY subscribed_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.NewsletterSubscription, 0)
	for rows.Next() {
		sub, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return subs, nil
}

func (r *NewsletterRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM newsletter_subscriptions WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}
