package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
	pkghttp "github.com/researcherhojin/emelmujiro/pkg/http"
)

// BlogServiceInterface defines blog business logic
type BlogServiceInterface interface {
	ListPublished(ctx context.Context, filter repositories.BlogFilter) ([]*models.BlogPost, int, error)
	GetPublished(ctx context.Context, id, viewerIP string) (*models.BlogPost, error)
	CategoryCounts(ctx context.Context) ([]models.CategoryCount, error)
	Get(ctx context.Context, id string) (*models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error)
	Update(ctx context.Context, id string, post *models.BlogPost) (*models.BlogPost, error)
	Delete(ctx context.Context, id string) error
}

// BlogHandler serves the public blog endpoints plus the admin CRUD surface
type BlogHandler struct {
	service BlogServiceInterface
}

func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

// BlogPostResponse is the public view of a post
type BlogPostResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Content       string  `json:"content,omitempty"`
	Category      string  `json:"category"`
	CategoryLabel string  `json:"category_label"`
	Date          string  `json:"date"`
	ImageURL      *string `json:"image_url,omitempty"`
	Link          *string `json:"link,omitempty"`
	IsFeatured    bool    `json:"is_featured"`
	ViewCount     int     `json:"view_count"`
}

// BlogListResponse is the paginated listing payload
type BlogListResponse struct {
	Posts []BlogPostResponse `json:"posts"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

func postToResponse(post *models.BlogPost, includeContent bool) BlogPostResponse {
	resp := BlogPostResponse{
		ID:            post.ID,
		Title:         post.Title,
		Description:   post.Description,
		Category:      post.Category,
		CategoryLabel: post.CategoryLabel(),
		Date:          post.Date.Format("2006-01-02"),
		ImageURL:      post.ImageURL,
		Link:          post.Link,
		IsFeatured:    post.IsFeatured,
		ViewCount:     post.ViewCount,
	}
	if includeContent {
		resp.Content = post.Content
	}
	return resp
}

// List handles GET /api/blog/posts
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(query.Get("page_size"))
	if size < 1 || size > 50 {
		size = 10
	}

	filter := repositories.BlogFilter{
		Category:     query.Get("category"),
		FeaturedOnly: query.Get("featured") == "true",
		Search:       query.Get("search"),
		Limit:        size,
		Offset:       (page - 1) * size,
	}

	posts, total, err := h.service.ListPublished(r.Context(), filter)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list posts")
		return
	}

	resp := BlogListResponse{
		Posts: make([]BlogPostResponse, 0, len(posts)),
		Total: total,
		Page:  page,
		Size:  size,
	}
	for _, post := range posts {
		resp.Posts = append(resp.Posts, postToResponse(post, false))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/blog/posts/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.service.GetPublished(r.Context(), id, pkghttp.ClientIP(r))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "post not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to get post")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, postToResponse(post, true))
}

// Categories handles GET /api/blog/categories
func (h *BlogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CategoryCounts(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list categories")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, counts)
}

// BlogPostRequest is the admin create/update payload
type BlogPostRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=500"`
	Content     string  `json:"content"`
	Category    string  `json:"category" validate:"required"`
	Date        string  `json:"date"` // YYYY-MM-DD, defaults to today
	ImageURL    *string `json:"image_url"`
	Link        *string `json:"link"`
	IsPublished bool    `json:"is_published"`
	IsFeatured  bool    `json:"is_featured"`
}

func (req *BlogPostRequest) toModel() (*models.BlogPost, error) {
	post := &models.BlogPost{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Link:        req.Link,
		IsPublished: req.IsPublished,
		IsFeatured:  req.IsFeatured,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		post.Date = date
	}
	return post, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// AdminGet handles GET /api/admin/blog/posts/{id} and returns the post
// regardless of publication state.
func (h *BlogHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "post not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to get post")
		return
	}

	resp := postToResponse(post, true)
	pkghttp.WriteJSON(w, http.StatusOK, struct {
		BlogPostResponse
		IsPublished bool `json:"is_published"`
	}{resp, post.IsPublished})
}

// AdminCreate handles POST /api/admin/blog/posts
func (h *BlogHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req BlogPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	post, err := req.toModel()
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid date format, expected YYYY-MM-DD")
		return
	}

	created, err := h.service.Create(r.Context(), post)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "unknown category")
			return
		}
		pkghttp.WriteInternalError(w, "failed to create post")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, postToResponse(created, true))
}

// AdminUpdate handles PUT /api/admin/blog/posts/{id}
func (h *BlogHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req BlogPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	post, err := req.toModel()
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid date format, expected YYYY-MM-DD")
		return
	}

	updated, err := h.service.Update(r.Context(), id, post)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "post not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "unknown category")
		default:
			pkghttp.WriteInternalError(w, "failed to update post")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, postToResponse(updated, true))
}

// AdminDelete handles DELETE /api/admin/blog/posts/{id}
func (h *BlogHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "post not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to delete post")
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "post deleted")
}
