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

type BlogRepository struct {
	pool *pgxpool.Pool
}

func NewBlogRepository(db *database.DB) *BlogRepository {
	return &BlogRepository{pool: db.Pool}
}

const blogColumns = `id, title, description, content, category, date, image_url, link,
	is_published, is_featured, view_count, created_at, updated_at`

// BlogFilter narrows the published-post listing. Zero values mean "no filter".
type BlogFilter struct {
	Category     string
	FeaturedOnly bool
	Search       string // matches title and description, case-insensitive
	Limit        int
	Offset       int
}

func scanBlogPostRow(scanner rowScanner) (*models.BlogPost, error) {
	var post models.BlogPost
	err := scanner.Scan(
		&post.ID, &post.Title, &post.Description, &post.Content, &post.Category,
		&post.Date, &post.ImageURL, &post.Link,
		&post.IsPublished, &post.IsFeatured, &post.ViewCount,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &post, nil
}

func scanBlogPostRows(rows pgx.Rows) ([]*models.BlogPost, error) {
	defer rows.Close()

	posts := make([]*models.BlogPost, 0)
	for rows.Next() {
		post, err := scanBlogPostRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return posts, nil
}

// ListPublished returns published posts newest-first with optional filters.
func (r *BlogRepository) ListPublished(ctx context.Context, filter BlogFilter) ([]*models.BlogPost, int, error) {
	where := ` WHERE is_published`
	args := []interface{}{}
	argN := 1

	if filter.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argN)
		args = append(args, filter.Category)
		argN++
	}
	if filter.FeaturedOnly {
		where += " AND is_featured"
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argN, argN)
		args = append(args, "%"+filter.Search+"%")
		argN++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM blog_posts` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	query := `SELECT ` + blogColumns + ` FROM blog_posts` + where +
		fmt.Sprintf(` ORDER BY date DESC LIMIT $%d OFFSET $%d`, argN, argN+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query blog posts: %w", err)
	}

	posts, err := scanBlogPostRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetPublishedByID returns the post only if it is published.
func (r *BlogRepository) GetPublishedByID(ctx context.Context, id string) (*models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1 AND is_published`
	return scanBlogPostRow(r.pool.QueryRow(ctx, query, id))
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1`
	return scanBlogPostRow(r.pool.QueryRow(ctx, query, id))
}

// IncrementViewCount bumps the counter atomically in the database.
func (r *BlogRepository) IncrementViewCount(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE blog_posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CategoryCounts aggregates published posts per category.
func (r *BlogRepository) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	query := `
		SELECT category, COUNT(*)
		FROM blog_posts WHERE is_published
		GROUP BY category ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	counts := make([]models.CategoryCount, 0)
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Value, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		c.Label = models.BlogCategoryLabels[c.Value]
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}

func (r *BlogRepository) Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	post.ID = uuid.New().String()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Date.IsZero() {
		post.Date = now
	}

	query := `
		INSERT INTO blog_posts (id, title, description, content, category, date, image_url, link,
			is_published, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + blogColumns

	return scanBlogPostRow(r.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Description, post.Content, post.Category, post.Date,
		post.ImageURL, post.Link, post.IsPublished, post.IsFeatured,
		post.CreatedAt, post.UpdatedAt,
	))
}

func (r *BlogRepository) Update(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error) {
	query := `
		UPDATE blog_posts
		SET title = $2, description = $3, content = $4, category = $5, date = $6,
			image_url = $7, link = $8, is_published = $9, is_featured = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + blogColumns

	return scanBlogPostRow(r.pool.QueryRow(ctx, query,
		id, post.Title, post.Description, post.Content, post.Category, post.Date,
		post.ImageURL, post.Link, post.IsPublished, post.IsFeatured,
	))
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
