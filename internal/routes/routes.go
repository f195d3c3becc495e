package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/handlers"
	"github.com/researcherhojin/emelmujiro/internal/middleware"
)

// Handlers bundles everything RegisterRoutes mounts
type Handlers struct {
	Contact    *handlers.ContactHandler
	Newsletter *handlers.NewsletterHandler
	Blog       *handlers.BlogHandler
	Auth       *handlers.AuthHandler
	Admin      *handlers.AdminHandler
	Health     *handlers.HealthHandler
}

// RegisterRoutes registers all application routes. The caller mounts the
// outer middleware (security gate, headers, CORS, logging) on the router
// before calling this.
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	users auth.UserFetcher,
	revocation auth.TokenRevocationChecker,
) {
	authRateLimit := middleware.DefaultAuthRateLimit()

	router.Get("/health", h.Health.Health)

	// Public API
	router.Route("/api", func(r chi.Router) {
		r.Post("/contact", h.Contact.Submit)
		r.Post("/newsletter", h.Newsletter.Subscribe)
		r.Get("/newsletter/unsubscribe", h.Newsletter.Unsubscribe)

		r.Get("/blog/posts", h.Blog.List)
		r.Get("/blog/posts/{id}", h.Blog.Get)
		r.Get("/blog/categories", h.Blog.Categories)

		// Credential endpoints carry their own tighter per-IP limit on top
		// of the global ceiling
		r.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/login", h.Auth.Login)
		r.With(middleware.RateLimitByIP(authRateLimit)).Post("/auth/refresh", h.Auth.Refresh)
		r.Post("/auth/logout", h.Auth.Logout)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenManager, revocation))

			r.Get("/auth/me", h.Auth.Me)
			r.Post("/auth/totp/setup", h.Auth.SetupTOTP)
			r.Post("/auth/totp/confirm", h.Auth.ConfirmTOTP)
			r.Post("/auth/totp/disable", h.Auth.DisableTOTP)

			// Admin-only routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(users, "admin"))

				r.Get("/dashboard", h.Admin.Dashboard)

				r.Get("/contacts", h.Admin.ListContacts)
				r.Get("/contacts/{id}", h.Admin.GetContact)
				r.Post("/contacts/{id}/process", h.Admin.ProcessContact)

				r.Get("/newsletter/subscribers", h.Admin.ListSubscribers)

				r.Get("/blocks/{ip}", h.Admin.BlockStatus)
				r.Post("/blocks", h.Admin.BlockIP)
				r.Delete("/blocks/{ip}", h.Admin.UnblockIP)

				r.Get("/blog/posts/{id}", h.Blog.AdminGet)
				r.Post("/blog/posts", h.Blog.AdminCreate)
				r.Put("/blog/posts/{id}", h.Blog.AdminUpdate)
				r.Delete("/blog/posts/{id}", h.Blog.AdminDelete)
			})
		})
	})
}
