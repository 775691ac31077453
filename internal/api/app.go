package api

import (
	"database/sql"
	"net/http"

	"decode/internal/api/handlers"
	"decode/internal/api/middleware"
	"decode/internal/engine/forms"
	"decode/internal/engine/organizations"
	"decode/internal/platform/audit"
	"decode/internal/platform/auth"
	"decode/internal/platform/cache"
	"decode/internal/platform/config"
	"decode/internal/platform/repositories"
)

// App is the fully wired HTTP application.
type App struct {
	Handler       http.Handler
	Organizations *organizations.Service
	limiter       *middleware.RateLimiter
}

func NewApp(cfg *config.Config, db *sql.DB, orgCache cache.OrgCache) (*App, error) {
	trusted, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	formRepo := repositories.NewFormRepository(db)

	// Services
	auditLogger := audit.NewLogger(db)
	tokenSvc := auth.NewTokenService(cfg.Session)
	orgSvc := organizations.NewService(db, orgCache, auditLogger)
	formSvc := forms.NewService(formRepo, auditLogger)

	limiter := middleware.NewRateLimiter()

	deps := &Dependencies{
		AuthHandler:       handlers.NewAuthHandler(userRepo, orgSvc, tokenSvc, auditLogger, cfg.Session),
		OrgHandler:        handlers.NewOrgHandler(orgSvc),
		AppHandler:        handlers.NewAppHandler(),
		OnboardingHandler: handlers.NewOnboardingHandler(orgSvc),
		FormHandler:       handlers.NewFormHandler(formSvc, orgSvc),
		AuditHandler:      handlers.NewAuditHandler(auditLogger, orgSvc),
		HealthHandler:     handlers.NewHealthHandler(db, orgCache),
		AuthMiddleware:    middleware.NewAuthMiddleware(tokenSvc, cfg.Session),
		TenantMiddleware:  middleware.NewTenantMiddleware(orgSvc),
		RateLimiter:       limiter,
		RateLimits:        cfg.RateLimit,
	}

	return &App{
		Handler:       NewHandler(cfg, NewPipeline(cfg), NewRouter(deps), trusted),
		Organizations: orgSvc,
		limiter:       limiter,
	}, nil
}

func (a *App) Close() {
	a.limiter.Stop()
}
