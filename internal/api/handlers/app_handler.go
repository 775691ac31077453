package handlers

import (
	"net/http"

	"decode/internal/api/middleware"
	"decode/internal/engine/features"
	"decode/internal/engine/organizations"
	"decode/internal/pkg/errors"
)

// AppHandler serves the tenant workspace. Every route runs behind
// RequireMember, so the organization is always in the context.
type AppHandler struct{}

func NewAppHandler() *AppHandler {
	return &AppHandler{}
}

func (h *AppHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	org, _ := middleware.OrganizationFromContext(r.Context())
	errors.WriteJSON(w, http.StatusOK, map[string]any{
		"items": features.ListSidebarFeatures(org.Flags()),
	})
}

// Feature reports whether the tenant may open a module and why not.
func (h *AppHandler) Feature(w http.ResponseWriter, r *http.Request) {
	org, _ := middleware.OrganizationFromContext(r.Context())
	key := param(r, "key")
	access := features.HasFeatureAccess(org.Flags(), key)

	resp := map[string]any{
		"key":        key,
		"has_access": access.HasAccess,
		"reason":     access.Reason,
	}
	if feature, ok := features.Lookup(key); ok {
		resp["feature"] = feature
	}
	errors.WriteJSON(w, http.StatusOK, resp)
}

func (h *AppHandler) Organization(w http.ResponseWriter, r *http.Request) {
	org, _ := middleware.OrganizationFromContext(r.Context())
	errors.WriteJSON(w, http.StatusOK, map[string]any{
		"organization": newOrganizationResponse(org),
		"role":         middleware.MemberRoleFromContext(r.Context()),
	})
}

type OnboardingHandler struct {
	orgs *organizations.Service
}

func NewOnboardingHandler(orgs *organizations.Service) *OnboardingHandler {
	return &OnboardingHandler{orgs: orgs}
}

type OnboardingRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Create makes the caller the owner of a new organization.
func (h *OnboardingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OnboardingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	org, err := h.orgs.Onboard(r.Context(), actor(r), req.Name, req.Slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusCreated, newOrganizationResponse(org))
}
