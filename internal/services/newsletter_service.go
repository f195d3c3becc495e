package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/validation"
)

// NewsletterRepository defines the persistence operations for subscriptions
type NewsletterRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	Create(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error)
	Reactivate(ctx context.Context, id, newToken, ipAddress string) (*models.NewsletterSubscription, error)
	DeactivateByToken(ctx context.Context, token string) (*models.NewsletterSubscription, error)
}

type NewsletterService struct {
	repo   NewsletterRepository
	logger *slog.Logger
}

func NewNewsletterService(repo NewsletterRepository, logger *slog.Logger) *NewsletterService {
	return &NewsletterService{repo: repo, logger: logger}
}

// Subscribe adds the email to the newsletter list. An address that
// unsubscribed earlier is reactivated in place (created=false); an address
// that is already active returns ErrConflict, which callers surface as
// success since resubscription is benign.
func (s *NewsletterService) Subscribe(ctx context.Context, email, name, ipAddress string) (*models.NewsletterSubscription, bool, error) {
	email = normalizeEmail(email)

	if result := validation.ValidateNewsletterEmail(email); !result.Valid() {
		return nil, false, &ValidationError{Fields: result}
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsActive {
			return existing, false, models.ErrConflict
		}
		sub, err := s.repo.Reactivate(ctx, existing.ID, uuid.New().String(), ipAddress)
		if err != nil {
			s.logger.Error("failed to reactivate subscription", slog.Any("error", err))
			return nil, false, models.ErrInternalServer
		}
		s.logger.Info("newsletter subscription reactivated", slog.String("subscription_id", sub.ID))
		return sub, false, nil

	case errors.Is(err, models.ErrNotFound):
		sub, err := s.repo.Create(ctx, &models.NewsletterSubscription{
			Email:            email,
			Name:             name,
			UnsubscribeToken: uuid.New().String(),
			IPAddress:        ipAddress,
		})
		if err != nil {
			if errors.Is(err, models.ErrConflict) {
				// Raced with a concurrent signup for the same address
				return nil, false, models.ErrConflict
			}
			s.logger.Error("failed to create subscription", slog.Any("error", err))
			return nil, false, models.ErrInternalServer
		}
		s.logger.Info("newsletter subscription created", slog.String("subscription_id", sub.ID))
		return sub, true, nil

	default:
		s.logger.Error("failed to look up subscription", slog.Any("error", err))
		return nil, false, models.ErrInternalServer
	}
}

// Unsubscribe deactivates the subscription behind the token. Unknown tokens
// return ErrNotFound; repeating an unsubscribe succeeds quietly.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrNotFound
	}

	sub, err := s.repo.DeactivateByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to unsubscribe", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("newsletter unsubscribed", slog.String("subscription_id", sub.ID))
	return nil
}
