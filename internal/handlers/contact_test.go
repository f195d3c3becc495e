package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/researcherhojin/emelmujiro/internal/handlers"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

func validContactRequest() handlers.ContactRequest {
	return handlers.ContactRequest{
		Name:        "김철수",
		Email:       "kim@example.com",
		InquiryType: models.InquiryLecture,
		Subject:     "AI 교육 문의드립니다",
		Message:     "사내 AI 교육 과정에 대해 문의드리고 싶습니다.",
	}
}

func TestContactSubmit_Success(t *testing.T) {
	var captured services.ContactSubmission
	mock := &handlers.MockContactService{
		SubmitFunc: func(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error) {
			captured = sub
			return &models.Contact{ID: "contact-1", CreatedAt: time.Now()}, nil
		},
	}

	handler := handlers.NewContactHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/contact", validContactRequest())
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "test-agent")

	w := httptest.NewRecorder()
	handler.Submit(w, req)

	var resp handlers.ContactResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "contact-1", resp.ID)
	assert.NotEmpty(t, resp.Message)

	// Identity comes from the connection, never the payload
	assert.Equal(t, "203.0.113.7", captured.IPAddress)
	assert.Equal(t, "test-agent", captured.UserAgent)
}

func TestContactSubmit_InvalidBody(t *testing.T) {
	handler := handlers.NewContactHandler(&handlers.MockContactService{})
	req := httptest.NewRequest("POST", "/api/contact", nil)

	w := httptest.NewRecorder()
	handler.Submit(w, req)

	handlers.AssertErrorResponse(t, w, 400)
}

func TestContactSubmit_ValidationErrorsReturnAllFields(t *testing.T) {
	mock := &handlers.MockContactService{
		SubmitFunc: func(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error) {
			return nil, &services.ValidationError{Fields: map[string][]string{
				"name":  {"이름은 한글 또는 영문만 사용할 수 있습니다."},
				"email": {"이메일 형식이 올바르지 않습니다."},
			}}
		},
	}

	handler := handlers.NewContactHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/contact", validContactRequest())

	w := httptest.NewRecorder()
	handler.Submit(w, req)

	assert.Equal(t, 400, w.Code)
	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Details, 2)
	assert.Contains(t, resp.Details, "name")
	assert.Contains(t, resp.Details, "email")
}

func TestContactSubmit_CaptchaFailed(t *testing.T) {
	mock := &handlers.MockContactService{
		SubmitFunc: func(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error) {
			return nil, models.ErrCaptchaFailed
		},
	}

	handler := handlers.NewContactHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/contact", validContactRequest())

	w := httptest.NewRecorder()
	handler.Submit(w, req)

	handlers.AssertErrorResponse(t, w, 400)
}

func TestContactSubmit_RateLimited(t *testing.T) {
	mock := &handlers.MockContactService{
		SubmitFunc: func(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error) {
			return nil, models.ErrRateLimitExceeded
		},
	}

	handler := handlers.NewContactHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/contact", validContactRequest())

	w := httptest.NewRecorder()
	handler.Submit(w, req)

	handlers.AssertErrorResponse(t, w, 429)
}

func TestContactSubmit_InternalErrorStaysGeneric(t *testing.T) {
	mock := &handlers.MockContactService{
		SubmitFunc: func(ctx context.Context, sub services.ContactSubmission) (*models.Contact, error) {
			return nil, assert.AnError
		},
	}

	handler := handlers.NewContactHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/contact", validContactRequest())

	w := httptest.NewRecorder()
	handler.Submit(w, req)

	handlers.AssertErrorResponse(t, w, 500)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
