package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/researcherhojin/emelmujiro/internal/auth"
	"github.com/researcherhojin/emelmujiro/internal/background"
	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/database"
	"github.com/researcherhojin/emelmujiro/internal/handlers"
	"github.com/researcherhojin/emelmujiro/internal/middleware"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/repositories"
	"github.com/researcherhojin/emelmujiro/internal/routes"
	"github.com/researcherhojin/emelmujiro/internal/security"
	"github.com/researcherhojin/emelmujiro/internal/services"
	pkgauth "github.com/researcherhojin/emelmujiro/pkg/auth"
	pkglogger "github.com/researcherhojin/emelmujiro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Shared cache store for counters, blocks and view dedupe. Redis keeps
	// the state visible across instances; the in-memory fallback is for
	// single-instance development only.
	var store cache.Store
	redisStore, err := cache.NewRedisStore(&cfg.Redis)
	if err != nil {
		if cfg.Server.Env == "production" {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Warn("redis unavailable, using in-memory store", slog.Any("error", err))
		store = cache.NewMemoryStore()
	} else {
		store = redisStore
		defer redisStore.Close()
	}

	// Abuse mitigation
	auditLogger := pkglogger.NewAuditLogger(logger)
	blocks := security.NewBlockController(store, &cfg.Security, auditLogger)
	ledger := services.NewAbuseLedger(store, &cfg.Security, logger)
	gate := middleware.NewSecurityGate(blocks, ledger, security.NewPatternMatcher(), auditLogger)

	// Repositories
	contactRepo := repositories.NewContactRepository(db)
	newsletterRepo := repositories.NewNewsletterRepository(db)
	blogRepo := repositories.NewBlogRepository(db)
	userRepo := repositories.NewUserRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)
	visitRepo := repositories.NewSiteVisitRepository(db)

	// External collaborators
	var captcha services.CaptchaVerifier = services.NoopCaptchaVerifier{}
	if cfg.Captcha.Enabled {
		captcha = services.NewRecaptchaVerifier(&cfg.Captcha, logger)
	}

	var emailService services.EmailService
	if cfg.Email.AdminEmail != "" {
		emailService, err = services.NewAWSSESEmailService(&cfg.Email, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("no admin notification address configured, logging notifications only")
		emailService = services.NewLogOnlyEmailService(logger)
	}

	// Auth
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)

	// Services
	contactService := services.NewContactService(contactRepo, ledger, captcha, emailService, logger, auditLogger)
	newsletterService := services.NewNewsletterService(newsletterRepo, logger)
	blogService := services.NewBlogService(blogRepo, store, logger)
	authService := services.NewAuthService(userRepo, revokeRepo, tokenManager, totpManager, logger)

	// Handlers
	h := routes.Handlers{
		Contact:    handlers.NewContactHandler(contactService),
		Newsletter: handlers.NewNewsletterHandler(newsletterService),
		Blog:       handlers.NewBlogHandler(blogService),
		Auth:       handlers.NewAuthHandler(authService),
		Admin:      handlers.NewAdminHandler(contactRepo, newsletterRepo, visitRepo, blocks, ledger, auditLogger),
		Health:     handlers.NewHealthHandler(db, store),
	}

	// Bootstrap first admin user if configured
	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	cleanupManager := background.NewCleanupManager(
		revokeRepo, visitRepo, cfg.Security.VisitRetention, logger, cfg.Auth.CleanupInterval)

	// Router: the security gate sits in front of everything
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(gate.Handler)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger))
	router.Use(middleware.TrackVisits(visitRepo, logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, h, tokenManager, userRepo, revokeRepo)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return fmt.Errorf("weak ADMIN_PASSWORD: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Admin",
		Role:         "admin",
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
