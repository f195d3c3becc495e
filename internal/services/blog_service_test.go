package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
)

func TestBlogService_GetPublished_CountsViewOncePerIPPerDay(t *testing.T) {
	increments := 0
	repo := &MockBlogRepository{
		GetPublishedByIDFunc: func(ctx context.Context, id string) (*models.BlogPost, error) {
			return &models.BlogPost{ID: id, Title: "제목", ViewCount: increments}, nil
		},
		IncrementViewCountFunc: func(ctx context.Context, id string) error {
			increments++
			return nil
		},
	}
	svc := NewBlogService(repo, cache.NewMemoryStore(), testLogger())
	ctx := context.Background()

	// Same IP reads three times: one view
	for i := 0; i < 3; i++ {
		_, err := svc.GetPublished(ctx, "post-1", "203.0.113.1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, increments)

	// Different IP: second view
	_, err := svc.GetPublished(ctx, "post-1", "203.0.113.2")
	require.NoError(t, err)
	assert.Equal(t, 2, increments)

	// Same IP, different post: third view
	_, err = svc.GetPublished(ctx, "post-2", "203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, 3, increments)
}

func TestBlogService_GetPublished_UnknownPost(t *testing.T) {
	repo := &MockBlogRepository{
		GetPublishedByIDFunc: func(ctx context.Context, id string) (*models.BlogPost, error) {
			return nil, models.ErrNotFound
		},
	}
	svc := NewBlogService(repo, cache.NewMemoryStore(), testLogger())

	_, err := svc.GetPublished(context.Background(), "nope", "203.0.113.1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBlogService_ListPublished_ClampsPagination(t *testing.T) {
	var gotFilter repositories.BlogFilter
	repo := &MockBlogRepository{
		ListPublishedFunc: func(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error) {
			gotFilter = filter
			return []*models.BlogPost{}, 0, nil
		},
	}
	svc := NewBlogService(repo, cache.NewMemoryStore(), testLogger())

	_, _, err := svc.ListPublished(context.Background(), repositories.BlogFilter{Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 10, gotFilter.Limit)
	assert.Equal(t, 0, gotFilter.Offset)
}

func TestBlogService_Create_RejectsUnknownCategory(t *testing.T) {
	svc := NewBlogService(&MockBlogRepository{}, cache.NewMemoryStore(), testLogger())

	_, err := svc.Create(context.Background(), &models.BlogPost{Title: "t", Category: "bogus"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
