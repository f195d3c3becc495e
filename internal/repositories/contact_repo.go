package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/researcherhojin/emelmujiro/internal/database"
	"github.com/researcherhojin/emelmujiro/internal/models"
)

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(db *database.DB) *ContactRepository {
	return &ContactRepository{pool: db.Pool}
}

const contactColumns = `id, name, email, company, phone, inquiry_type, subject, message,
	ip_address, user_agent, created_at, processed, processed_at, processed_by, notes`

func scanContactRow(scanner rowScanner) (*models.Contact, error) {
	var contact models.Contact
	err := scanner.Scan(
		&contact.ID, &contact.Name, &contact.Email, &contact.Company, &contact.Phone,
		&contact.InquiryType, &contact.Subject, &contact.Message,
		&contact.IPAddress, &contact.UserAgent, &contact.CreatedAt,
		&contact.Processed, &contact.ProcessedAt, &contact.ProcessedBy, &contact.Notes,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &contact, nil
}

func scanContactRows(rows pgx.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		contact, err := scanContactRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	contact.ID = uuid.New().String()
	contact.CreatedAt = time.Now()

	query := `
		INSERT INTO contacts (id, name, email, company, phone, inquiry_type, subject, message,
			ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + contactColumns

	return scanContactRow(r.pool.QueryRow(ctx, query,
		contact.ID, contact.Name, contact.Email, contact.Company, contact.Phone,
		contact.InquiryType, contact.Subject, contact.Message,
		contact.IPAddress, contact.UserAgent, contact.CreatedAt,
	))
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return scanContactRow(r.pool.QueryRow(ctx, query, id))
}

// List returns submissions newest-first. When unprocessedOnly is set, rows
// already handled by an admin are filtered out.
func (r *ContactRepository) List(ctx context.Context, unprocessedOnly bool, limit, offset int) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	if unprocessedOnly {
		query += ` WHERE NOT processed`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	return scanContactRows(rows)
}

func (r *ContactRepository) Count(ctx context.Context, unprocessedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM contacts`
	if unprocessedOnly {
		query += ` WHERE NOT processed`
	}

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// MarkProcessed records which admin handled the submission and when.
func (r *ContactRepository) MarkProcessed(ctx context.Context, id, adminEmail, notes string) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET processed = TRUE, processed_at = NOW(), processed_by = $2, notes = $3
		WHERE id = $1
		RETURNING ` + contactColumns

	return scanContactRow(r.pool.QueryRow(ctx, query, id, adminEmail, notes))
}
