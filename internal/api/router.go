package api

import (
	"context"
	"net/http"
	"strings"

	"filippo.io/csrf"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	apiContext "decode/internal/api/context"
	"decode/internal/api/handlers"
	"decode/internal/api/middleware"
	"decode/internal/engine/routing"
	"decode/internal/pkg/errors"
	"decode/internal/platform/config"
	"decode/internal/platform/models"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	OrgHandler        *handlers.OrgHandler
	AppHandler        *handlers.AppHandler
	OnboardingHandler *handlers.OnboardingHandler
	FormHandler       *handlers.FormHandler
	AuditHandler      *handlers.AuditHandler
	HealthHandler     *handlers.HealthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	TenantMiddleware  *middleware.TenantMiddleware
	RateLimiter       *middleware.RateLimiter
	RateLimits        config.RateLimitConfig
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error", nil)
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Not found", nil)
	})

	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	limiter := deps.RateLimiter

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	// Authentication
	loginLimit := limiter.RateLimit("login", deps.RateLimits.LoginPerMinute)
	router.POST("/api/auth/login", chain(deps.AuthHandler.Login, loginLimit))
	router.POST("/api/auth/admin/login", chain(deps.AuthHandler.AdminLogin, loginLimit))
	router.POST("/api/auth/logout", wrap(deps.AuthHandler.Logout))
	router.GET("/api/auth/session", chain(deps.AuthHandler.Session, authMid.RequireSession))
	router.POST("/api/auth/impersonate/:user_id",
		chain(deps.AuthHandler.Impersonate, authMid.RequireSession, authMid.RequireSystemAdmin))
	router.DELETE("/api/auth/impersonate",
		chain(deps.AuthHandler.StopImpersonation, authMid.RequireSession))

	// Admin console
	admin := func(h http.HandlerFunc) httprouter.Handle {
		return chain(h, authMid.RequireSession, authMid.RequireSystemAdmin)
	}
	router.GET("/api/admin/organizations", admin(deps.OrgHandler.List))
	router.POST("/api/admin/organizations", admin(deps.OrgHandler.Create))
	router.GET("/api/admin/organizations/:slug", admin(deps.OrgHandler.Get))
	router.POST("/api/admin/organizations/:slug/features/:key/toggle", admin(deps.OrgHandler.ToggleFeature))
	router.PUT("/api/admin/organizations/:slug/features", admin(deps.OrgHandler.SetFeatures))
	router.PUT("/api/admin/organizations/:slug/sandbox", admin(deps.OrgHandler.SetSandbox))
	router.GET("/api/admin/features", admin(deps.OrgHandler.Features))
	router.GET("/api/admin/audit", admin(deps.AuditHandler.List))

	// Tenant workspace
	member := []func(http.HandlerFunc) http.HandlerFunc{authMid.RequireSession, tenantMid.RequireMember}
	withForms := []func(http.HandlerFunc) http.HandlerFunc{authMid.RequireSession, tenantMid.RequireMember, middleware.RequireFeature("forms")}

	router.GET("/api/app/navigation", chain(deps.AppHandler.Navigation, member...))
	router.GET("/api/app/features/:key", chain(deps.AppHandler.Feature, member...))
	router.GET("/api/app/organization", chain(deps.AppHandler.Organization, member...))
	router.GET("/api/app/forms", chain(deps.FormHandler.List, withForms...))
	router.POST("/api/app/forms", chain(deps.FormHandler.Create,
		authMid.RequireSession, tenantMid.RequireMember, middleware.RequireFeature("forms"),
		middleware.RequireRole(models.MemberRoleOwner, models.MemberRoleAdmin)))
	router.GET("/api/app/forms/:form/submissions", chain(deps.FormHandler.Submissions, withForms...))

	router.POST("/api/onboarding", chain(deps.OnboardingHandler.Create, authMid.RequireSession))

	// Public forms
	router.GET("/f/:slug/:form", wrap(deps.FormHandler.PublicGet))
	router.POST("/api/forms/:slug/:form/submissions",
		chain(deps.FormHandler.Submit, limiter.RateLimit("form_submission", deps.RateLimits.FormSubmissionsPerMinute)))

	return router
}

// NewHandler wraps the router with client address resolution, request
// logging and the routing pipeline. API routes get CORS outside the pipeline
// so browser preflights are answered before the cookie gate runs. Everything
// else gets CSRF protection inside it.
func NewHandler(cfg *config.Config, pipeline routing.Pipeline, router http.Handler, trusted middleware.TrustedProxies) http.Handler {
	// Credentialed CORS needs explicit origins; with none configured rs/cors
	// answers with a wildcard, which browsers refuse alongside credentials.
	withCORS := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{routing.HeaderTenantSlug, routing.HeaderAdminAccess},
		AllowCredentials: len(cfg.CORS.AllowedOrigins) > 0,
		MaxAge:           cfg.CORS.MaxAge,
	}).Handler(middleware.Pipeline(pipeline)(router))
	withCSRF := middleware.Pipeline(pipeline)(csrf.New().Handler(router))

	split := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			withCORS.ServeHTTP(w, r)
			return
		}
		withCSRF.ServeHTTP(w, r)
	})

	return middleware.ResolveClientIP(trusted)(middleware.RequestLogger(split))
}

func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// NewPipeline builds the routing pipeline from the tenancy and session settings.
func NewPipeline(cfg *config.Config) routing.Pipeline {
	resolver := routing.NewResolver(routing.ResolverConfig{
		ApexDomains:         cfg.Tenancy.ApexDomains,
		DefaultHost:         cfg.Tenancy.DefaultHost,
		AdminPathPrefixes:   cfg.Tenancy.AdminPathPrefixes,
		AllowTenantOverride: cfg.Tenancy.AllowTenantOverride,
	})
	gate := routing.NewGate(routing.GateConfig{
		PublicPaths:        cfg.Tenancy.PublicPaths,
		PublicPathPrefixes: cfg.Tenancy.PublicPathPrefixes,
		LoginPath:          cfg.Tenancy.LoginPath,
		AdminLoginPath:     cfg.Tenancy.AdminLoginPath,
		SessionCookies:     middleware.SessionCookieNames(cfg.Session),
	})
	return routing.NewPipeline(cfg.Tenancy.LegacyRedirects, resolver, gate)
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
