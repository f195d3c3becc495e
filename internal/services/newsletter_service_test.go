package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researcherhojin/emelmujiro/internal/models"
)

func TestNewsletterService_Subscribe_NewEmail(t *testing.T) {
	repo := &MockNewsletterRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
			sub.ID = "sub-1"
			sub.IsActive = true
			sub.SubscribedAt = time.Now()
			return sub, nil
		},
	}
	svc := NewNewsletterService(repo, testLogger())

	sub, created, err := svc.Subscribe(context.Background(), "Reader@Example.com", "독자", "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sub-1", sub.ID)
	assert.Equal(t, "reader@example.com", sub.Email, "email is normalized")
	assert.NotEmpty(t, sub.UnsubscribeToken)
}

func TestNewsletterService_Subscribe_ActiveEmailConflicts(t *testing.T) {
	repo := &MockNewsletterRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
			return &models.NewsletterSubscription{ID: "sub-1", Email: email, IsActive: true}, nil
		},
	}
	svc := NewNewsletterService(repo, testLogger())

	sub, created, err := svc.Subscribe(context.Background(), "reader@example.com", "", "203.0.113.1")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.False(t, created)
	assert.NotNil(t, sub, "the existing subscription is returned for context")
}

func TestNewsletterService_Subscribe_ReactivatesUnsubscribed(t *testing.T) {
	oldToken := "old-token"
	reactivated := false

	repo := &MockNewsletterRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
			past := time.Now().Add(-48 * time.Hour)
			return &models.NewsletterSubscription{
				ID: "sub-1", Email: email, IsActive: false,
				UnsubscribedAt: &past, UnsubscribeToken: oldToken,
			}, nil
		},
		ReactivateFunc: func(ctx context.Context, id, newToken, ipAddress string) (*models.NewsletterSubscription, error) {
			reactivated = true
			assert.Equal(t, "sub-1", id)
			assert.NotEqual(t, oldToken, newToken, "token must rotate on reactivation")
			return &models.NewsletterSubscription{
				ID: id, IsActive: true, UnsubscribeToken: newToken,
			}, nil
		},
	}
	svc := NewNewsletterService(repo, testLogger())

	sub, created, err := svc.Subscribe(context.Background(), "reader@example.com", "", "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, created, "reactivation is not a new subscription")
	assert.True(t, reactivated)
	assert.True(t, sub.IsActive)
}

func TestNewsletterService_Subscribe_RejectsDisposableEmail(t *testing.T) {
	svc := NewNewsletterService(&MockNewsletterRepository{}, testLogger())

	_, _, err := svc.Subscribe(context.Background(), "user@tempmail.org", "", "203.0.113.1")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
}

func TestNewsletterService_Unsubscribe(t *testing.T) {
	repo := &MockNewsletterRepository{
		DeactivateByTokenFunc: func(ctx context.Context, token string) (*models.NewsletterSubscription, error) {
			if token == "known-token" {
				return &models.NewsletterSubscription{ID: "sub-1", IsActive: false}, nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc := NewNewsletterService(repo, testLogger())

	assert.NoError(t, svc.Unsubscribe(context.Background(), "known-token"))
	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), "unknown-token"), models.ErrNotFound)
	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), ""), models.ErrNotFound)
}
