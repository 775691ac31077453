package handlers

import (
	"net/http"

	"decode/internal/engine/features"
	"decode/internal/engine/organizations"
	"decode/internal/pkg/errors"
	"decode/internal/platform/models"
)

// OrgHandler serves the admin console's organization management.
type OrgHandler struct {
	orgs *organizations.Service
}

func NewOrgHandler(orgs *organizations.Service) *OrgHandler {
	return &OrgHandler{orgs: orgs}
}

type OrganizationResponse struct {
	*models.Organization
	AccessibleFeatures []features.Feature `json:"accessible_features"`
}

func newOrganizationResponse(org *models.Organization) OrganizationResponse {
	return OrganizationResponse{
		Organization:       org,
		AccessibleFeatures: features.ListAccessibleFeatures(org.Flags()),
	}
}

func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.List(r.Context(), queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.GetBySlug(r.Context(), param(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, newOrganizationResponse(org))
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req organizations.CreateClientInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.orgs.CreateClient(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusCreated, res)
}

func (h *OrgHandler) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.ToggleFeature(r.Context(), actor(r), param(r, "slug"), param(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, newOrganizationResponse(org))
}

type SetFeaturesRequest struct {
	Features []string `json:"features"`
}

func (h *OrgHandler) SetFeatures(w http.ResponseWriter, r *http.Request) {
	var req SetFeaturesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Features == nil {
		req.Features = []string{}
	}

	org, err := h.orgs.SetFeatures(r.Context(), actor(r), param(r, "slug"), req.Features)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, newOrganizationResponse(org))
}

type SetSandboxRequest struct {
	IsSandbox *bool `json:"is_sandbox"`
}

func (h *OrgHandler) SetSandbox(w http.ResponseWriter, r *http.Request) {
	var req SetSandboxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsSandbox == nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "is_sandbox is required", nil)
		return
	}

	org, err := h.orgs.SetSandbox(r.Context(), actor(r), param(r, "slug"), *req.IsSandbox)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, newOrganizationResponse(org))
}

// Features lists what an admin may grant. Dev features are omitted.
func (h *OrgHandler) Features(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]any{"features": features.ListActivatableFeatures()})
}
