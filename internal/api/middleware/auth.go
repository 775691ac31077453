package middleware

import (
	"context"
	"net/http"

	apiContext "decode/internal/api/context"
	"decode/internal/engine/routing"
	"decode/internal/pkg/errors"
	"decode/internal/platform/auth"
	"decode/internal/platform/config"
	"decode/internal/platform/models"
)

// AuthMiddleware performs the fine-grained session check behind the cookie gate.
type AuthMiddleware struct {
	tokenSvc *auth.TokenService
	cookies  []string
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, cfg config.SessionConfig) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc: tokenSvc,
		cookies:  SessionCookieNames(cfg),
	}
}

// SessionCookieNames lists the cookie names in lookup order, secure first.
func SessionCookieNames(cfg config.SessionConfig) []string {
	return []string{cfg.SecureCookieName(), cfg.CookieName()}
}

// Session decodes the session cookie, if any. A missing or invalid cookie
// yields nil.
func (m *AuthMiddleware) Session(r *http.Request) *auth.Session {
	for _, name := range m.cookies {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			continue
		}
		if session, err := m.tokenSvc.Validate(c.Value); err == nil {
			return session
		}
	}
	return nil
}

func (m *AuthMiddleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := m.Session(r)
		if session == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired session", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Session, session)
		next(w, r.WithContext(ctx))
	}
}

// RequireSystemAdmin must run after RequireSession. Impersonated sessions
// carry the target user's role and therefore do not pass.
func (m *AuthMiddleware) RequireSystemAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No session found", nil)
			return
		}
		if session.Role != models.SystemRoleAdmin {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Administrator access required", nil)
			return
		}
		next(w, r)
	}
}

func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(apiContext.Session).(*auth.Session)
	return session, ok && session != nil
}

func RouteFromContext(ctx context.Context) (routing.Route, bool) {
	route, ok := ctx.Value(apiContext.Route).(routing.Route)
	return route, ok
}

func OrganizationFromContext(ctx context.Context) (*models.Organization, bool) {
	org, ok := ctx.Value(apiContext.Organization).(*models.Organization)
	return org, ok && org != nil
}

func MemberRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(apiContext.MemberRole).(string)
	return role
}
