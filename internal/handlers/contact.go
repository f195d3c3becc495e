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

// ContactServiceInterface defines the contact pipeline entrypoint
type ContactServiceInterface interface {
	Submit(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error)
}

// ContactHandler handles public contact-form submissions
type ContactHandler struct {
	service ContactServiceInterface
}

func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// ContactRequest represents the contact-form request body. Field rules are
// enforced by the pipeline; the handler only requires presence and shape.
type ContactRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,max=254"`
	Company      string `json:"company" validate:"max=100"`
	Phone        string `json:"phone" validate:"max=20"`
	InquiryType  string `json:"inquiry_type" validate:"required"`
	Subject      string `json:"subject" validate:"required,max=200"`
	Message      string `json:"message" validate:"required,max=2000"`
	CaptchaToken string `json:"captcha_token"`
}

// ContactResponse is the public view of an accepted submission. The stored
// request identity never leaves the server.
type ContactResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	contact, err := h.service.Submit(r.Context(), services.ContactSubmission{
		Name:         req.Name,
		Email:        req.Email,
		Company:      req.Company,
		Phone:        req.Phone,
		InquiryType:  req.InquiryType,
		Subject:      req.Subject,
		Message:      req.Message,
		CaptchaToken: req.CaptchaToken,
		IPAddress:    pkghttp.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			pkghttp.WriteValidationError(w, "입력 내용을 확인해주세요.", ve.Fields)
		case errors.Is(err, models.ErrCaptchaFailed):
			pkghttp.WriteBadRequest(w, "보안 문자 확인에 실패했습니다.")
		case errors.Is(err, models.ErrRateLimitExceeded):
			pkghttp.WriteTooManyRequests(w, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
		default:
			pkghttp.WriteInternalError(w, "문의 접수 중 오류가 발생했습니다.")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, ContactResponse{
		ID:        contact.ID,
		Message:   "문의가 접수되었습니다. 빠른 시일 내에 답변드리겠습니다.",
		CreatedAt: contact.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
