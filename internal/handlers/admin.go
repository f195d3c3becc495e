package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/models"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
	"github.com/researcherhojin/emelmujiro/pkg/logger"
)

// AdminContactRepository defines the contact operations the admin surface needs
type AdminContactRepository interface {
	List(ctx context.Context, unprocessedOnly bool, limit, offset int) ([]*models.Contact, error)
	Count(ctx context.Context, unprocessedOnly bool) (int, error)
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	MarkProcessed(ctx context.Context, id, adminEmail, notes string) (*models.Contact, error)
}

// AdminNewsletterRepository defines subscriber listing for the admin surface
type AdminNewsletterRepository interface {
	ListActive(ctx context.Context, limit, offset int) ([]*models.NewsletterSubscription, error)
	CountActive(ctx context.Context) (int, error)
}

// AdminSiteVisitRepository defines the traffic stats query
type AdminSiteVisitRepository interface {
	CountSince(ctx context.Context, since time.Time) (total int, uniqueIPs int, err error)
}

// BlockAdminController defines the block management operations
type BlockAdminController interface {
	Status(ctx context.Context, ip string) (*models.BlockStatus, error)
	BlockPermanently(ctx context.Context, ip, reason string) error
	Unblock(ctx context.Context, ip string) error
}

// AbuseCounterResetter clears an IP's rate counters on force-unblock
type AbuseCounterResetter interface {
	ResetIP(ctx context.Context, ip string) error
}

// AdminHandler serves the admin dashboard, inquiry management and block
// management endpoints. All routes require an authenticated admin.
type AdminHandler struct {
	contacts    AdminContactRepository
	subscribers AdminNewsletterRepository
	visits      AdminSiteVisitRepository
	blocks      BlockAdminController
	counters    AbuseCounterResetter
	audit       *logger.AuditLogger
}

func NewAdminHandler(
	contacts AdminContactRepository,
	subscribers AdminNewsletterRepository,
	visits AdminSiteVisitRepository,
	blocks BlockAdminController,
	counters AbuseCounterResetter,
	audit *logger.AuditLogger,
) *AdminHandler {
	return &AdminHandler{
		contacts:    contacts,
		subscribers: subscribers,
		visits:      visits,
		blocks:      blocks,
		counters:    counters,
		audit:       audit,
	}
}

func pageParams(r *http.Request) (limit, offset int) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(query.Get("page_size"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

func actorEmail(r *http.Request) string {
	if claims := auth.GetUserFromContext(r); claims != nil {
		return claims.Email
	}
	return ""
}

// AdminContactResponse is the admin view of a submission, including the
// request identity withheld from public responses.
type AdminContactResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Company          string  `json:"company,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	InquiryType      string  `json:"inquiry_type"`
	InquiryTypeLabel string  `json:"inquiry_type_label"`
	Subject          string  `json:"subject"`
	Message          string  `json:"message"`
	IPAddress        string  `json:"ip_address"`
	UserAgent        string  `json:"user_agent"`
	CreatedAt        string  `json:"created_at"`
	Processed        bool    `json:"processed"`
	ProcessedAt      *string `json:"processed_at,omitempty"`
	ProcessedBy      *string `json:"processed_by,omitempty"`
	Notes            string  `json:"notes,omitempty"`
}

func contactToAdminResponse(c *models.Contact) AdminContactResponse {
	resp := AdminContactResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Company:          c.Company,
		Phone:            c.Phone,
		InquiryType:      c.InquiryType,
		InquiryTypeLabel: c.InquiryTypeLabel(),
		Subject:          c.Subject,
		Message:          c.Message,
		IPAddress:        c.IPAddress,
		UserAgent:        c.UserAgent,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		Processed:        c.Processed,
		ProcessedBy:      c.ProcessedBy,
		Notes:            c.Notes,
	}
	if c.ProcessedAt != nil {
		at := c.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &at
	}
	return resp
}

// ListContacts handles GET /api/admin/contacts
func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	unprocessedOnly := r.URL.Query().Get("unprocessed") == "true"

	contacts, err := h.contacts.List(r.Context(), unprocessedOnly, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list contacts")
		return
	}
	total, err := h.contacts.Count(r.Context(), unprocessedOnly)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to count contacts")
		return
	}

	items := make([]AdminContactResponse, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, contactToAdminResponse(c))
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": items,
		"total":    total,
	})
}

// GetContact handles GET /api/admin/contacts/{id}
func (h *AdminHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	contact, err := h.contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "contact not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to get contact")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, contactToAdminResponse(contact))
}

// ProcessContactRequest carries optional handling notes
type ProcessContactRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// ProcessContact handles POST /api/admin/contacts/{id}/process
func (h *AdminHandler) ProcessContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ProcessContactRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor := actorEmail(r)
	contact, err := h.contacts.MarkProcessed(r.Context(), id, actor, req.Notes)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "contact not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to process contact")
		return
	}

	h.audit.LogAdminAction("contact_processed", actor, map[string]string{"contact_id": id})
	pkghttp.WriteJSON(w, http.StatusOK, contactToAdminResponse(contact))
}

// ListSubscribers handles GET /api/admin/newsletter/subscribers
func (h *AdminHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	subs, err := h.subscribers.ListActive(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list subscribers")
		return
	}
	total, err := h.subscribers.CountActive(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to count subscribers")
		return
	}

	type subscriberResponse struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Name         string `json:"name,omitempty"`
		SubscribedAt string `json:"subscribed_at"`
	}
	items := make([]subscriberResponse, 0, len(subs))
	for _, sub := range subs {
		items = append(items, subscriberResponse{
			ID:           sub.ID,
			Email:        sub.Email,
			Name:         sub.Name,
			SubscribedAt: sub.SubscribedAt.Format(time.RFC3339),
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"subscribers": items,
		"total":       total,
	})
}

// DashboardStats aggregates the numbers shown on the admin landing page
type DashboardStats struct {
	UnprocessedContacts int `json:"unprocessed_contacts"`
	TotalContacts       int `json:"total_contacts"`
	ActiveSubscribers   int `json:"active_subscribers"`
	VisitsLast30Days    int `json:"visits_last_30_days"`
	UniqueVisitors      int `json:"unique_visitors_last_30_days"`
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	unprocessed, err := h.contacts.Count(ctx, true)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to load dashboard stats")
		return
	}
	total, err := h.contacts.Count(ctx, false)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to load dashboard stats")
		return
	}
	subscribers, err := h.subscribers.CountActive(ctx)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to load dashboard stats")
		return
	}
	visits, uniqueIPs, err := h.visits.CountSince(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to load dashboard stats")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DashboardStats{
		UnprocessedContacts: unprocessed,
		TotalContacts:       total,
		ActiveSubscribers:   subscribers,
		VisitsLast30Days:    visits,
		UniqueVisitors:      uniqueIPs,
	})
}

// BlockStatus handles GET /api/admin/blocks/{ip}
func (h *AdminHandler) BlockStatus(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	status, err := h.blocks.Status(r.Context(), ip)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to get block status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// BlockRequest identifies the IP to block and why
type BlockRequest struct {
	IP     string `json:"ip" validate:"required,ip"`
	Reason string `json:"reason" validate:"max=200"`
}

// BlockIP handles POST /api/admin/blocks
func (h *AdminHandler) BlockIP(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.blocks.BlockPermanently(r.Context(), req.IP, req.Reason); err != nil {
		pkghttp.WriteInternalError(w, "failed to block ip")
		return
	}

	h.audit.LogAdminAction("ip_blocked", actorEmail(r), map[string]string{
		"ip":     req.IP,
		"reason": req.Reason,
	})
	pkghttp.WriteMessage(w, http.StatusOK, "ip blocked")
}

// UnblockIP handles DELETE /api/admin/blocks/{ip}
func (h *AdminHandler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	if err := h.blocks.Unblock(r.Context(), ip); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			pkghttp.WriteForbidden(w, "ip is on the static blocklist")
			return
		}
		pkghttp.WriteInternalError(w, "failed to unblock ip")
		return
	}

	// A lifted block clears the rate counters too, so the IP is not
	// immediately re-denied by a full window
	if err := h.counters.ResetIP(r.Context(), ip); err != nil {
		pkghttp.WriteInternalError(w, "failed to reset rate counters")
		return
	}

	h.audit.LogAdminAction("ip_unblocked", actorEmail(r), map[string]string{"ip": ip})
	pkghttp.WriteMessage(w, http.StatusOK, "ip unblocked")
}
