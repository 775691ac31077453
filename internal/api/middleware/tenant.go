package middleware

import (
	"context"
	stdErrors "errors"
	"net/http"
	"slices"

	"github.com/rs/zerolog/log"

	apiContext "decode/internal/api/context"
	"decode/internal/engine/features"
	"decode/internal/engine/organizations"
	"decode/internal/engine/routing"
	"decode/internal/pkg/errors"
)

// TenantMiddleware loads the organization named by the resolved route and
// checks the session user's membership.
type TenantMiddleware struct {
	orgs *organizations.Service
}

func NewTenantMiddleware(orgs *organizations.Service) *TenantMiddleware {
	return &TenantMiddleware{orgs: orgs}
}

// RequireMember must run after RequireSession.
func (m *TenantMiddleware) RequireMember(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No session found", nil)
			return
		}

		route, _ := RouteFromContext(r.Context())
		if route.Surface != routing.SurfaceTenant || route.TenantSlug == "" {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "No organization for this host", nil)
			return
		}

		org, err := m.orgs.GetBySlug(r.Context(), route.TenantSlug)
		if route.FromOverride && stdErrors.Is(err, organizations.ErrNotFound) {
			// The development override header may carry an organization id.
			org, err = m.orgs.GetByID(r.Context(), route.TenantSlug)
		}
		if stdErrors.Is(err, organizations.ErrNotFound) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("slug", route.TenantSlug).Msg("failed to load organization")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}

		role, err := m.orgs.MemberRole(r.Context(), org.ID, session.UserID)
		if stdErrors.Is(err, organizations.ErrNotMember) {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Not a member of this organization", nil)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("org_id", org.ID).Msg("failed to check membership")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to check membership", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Organization, org)
		ctx = context.WithValue(ctx, apiContext.MemberRole, role)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole must run after RequireMember.
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, MemberRoleFromContext(r.Context())) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}
			next(w, r)
		}
	}
}

// RequireFeature gates a tenant module on the organization's feature access.
// It must run after RequireMember.
func RequireFeature(key string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			org, _ := OrganizationFromContext(r.Context())
			access := features.HasFeatureAccess(org.Flags(), key)
			if !access.HasAccess {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeFeatureUnavailable, "Feature not available for this organization", map[string]string{
					"feature": key,
					"reason":  string(access.Reason),
				})
				return
			}
			next(w, r)
		}
	}
}
