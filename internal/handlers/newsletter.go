package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

// NewsletterServiceInterface defines newsletter business logic
type NewsletterServiceInterface interface {
	Subscribe(ctx context.Context, email, name, ipAddress string) (*models.NewsletterSubscription, bool, error)
	Unsubscribe(ctx context.Context, token string) error
}

// NewsletterHandler handles newsletter subscription requests
type NewsletterHandler struct {
	service NewsletterServiceInterface
}

func NewNewsletterHandler(service NewsletterServiceInterface) *NewsletterHandler {
	return &NewsletterHandler{service: service}
}

// SubscribeRequest represents the request body for newsletter signup
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"max=100"`
}

// Subscribe handles POST /api/newsletter
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_, created, err := h.service.Subscribe(r.Context(), req.Email, req.Name, pkghttp.ClientIP(r))
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			pkghttp.WriteValidationError(w, "입력 내용을 확인해주세요.", ve.Fields)
		case errors.Is(err, models.ErrConflict):
			// Already subscribed is not an error from the reader's side
			pkghttp.WriteMessage(w, http.StatusOK, "이미 구독 중인 이메일입니다.")
		default:
			pkghttp.WriteInternalError(w, "구독 처리 중 오류가 발생했습니다.")
		}
		return
	}

	if created {
		pkghttp.WriteMessage(w, http.StatusCreated, "뉴스레터 구독이 완료되었습니다.")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "뉴스레터 구독이 다시 활성화되었습니다.")
}

// Unsubscribe handles GET /api/newsletter/unsubscribe?token=...
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkghttp.WriteBadRequest(w, "token is required")
		return
	}

	if err := h.service.Unsubscribe(r.Context(), token); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "유효하지 않은 구독 해지 링크입니다.")
			return
		}
		pkghttp.WriteInternalError(w, "구독 해지 처리 중 오류가 발생했습니다.")
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "뉴스레터 구독이 해지되었습니다.")
}
