package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
)

const viewDedupeWindow = 24 * time.Hour

// BlogRepository defines the persistence operations for blog posts
type BlogRepository interface {
	ListPublished(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error)
	GetPublishedByID(ctx context.Context, id string) (*models.BlogPost, error)
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	IncrementViewCount(ctx context.Context, id string) error
	CategoryCounts(ctx context.Context) ([]models.CategoryCount, error)
	Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error)
	Update(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error)
	Delete(ctx context.Context, id string) error
}

type BlogService struct {
	repo   BlogRepository
	store  cache.Store
	logger *slog.Logger
}

func NewBlogService(repo BlogRepository, store cache.Store, logger *slog.Logger) *BlogService {
	return &BlogService{repo: repo, store: store, logger: logger}
}

func (s *BlogService) ListPublished(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error) {
	if filter.Limit <= 0 || filter.Limit > 50 {
		filter.Limit = 10
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListPublished(ctx, filter)
}

// GetPublished returns the post and counts the view. A given IP counts at
// most one view per post per day; the dedupe key lives in the cache store
// and the counter itself in the database.
func (s *BlogService) GetPublished(ctx context.Context, id, viewerIP string) (*models.BlogPost, error) {
	post, err := s.repo.GetPublishedByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerIP != "" {
		dedupeKey := "view:" + id + ":" + viewerIP
		_, seen, err := s.store.Get(ctx, dedupeKey)
		if err != nil {
			// Cache trouble: skip counting rather than double-count or fail the read
			s.logger.Error("view dedupe check failed", slog.Any("error", err))
			return post, nil
		}
		if !seen {
			if err := s.store.Set(ctx, dedupeKey, "1", viewDedupeWindow); err != nil {
				s.logger.Error("failed to set view dedupe key", slog.Any("error", err))
			} else if err := s.repo.IncrementViewCount(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
				s.logger.Error("failed to increment view count",
					slog.String("post_id", id), slog.Any("error", err))
			} else {
				post.ViewCount++
			}
		}
	}

	return post, nil
}

func (s *BlogService) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	return s.repo.CategoryCounts(ctx)
}

// Administrative operations below bypass the is_published filter.

func (s *BlogService) Get(ctx context.Context, id string) (*models.BlogPost, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BlogService) Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	if _, ok := models.BlogCategoryLabels[post.Category]; !ok {
		return nil, models.ErrBadRequest
	}
	return s.repo.Create(ctx, post)
}

func (s *BlogService) Update(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error) {
	if _, ok := models.BlogCategoryLabels[post.Category]; !ok {
		return nil, models.ErrBadRequest
	}
	return s.repo.Update(ctx, id, post)
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
