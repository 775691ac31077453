package handlers

import (
	"net/http"

	"decode/internal/api/middleware"
	"decode/internal/engine/features"
	"decode/internal/engine/forms"
	"decode/internal/engine/organizations"
	"decode/internal/pkg/errors"
	"decode/internal/platform/models"
)

const formsFeature = "forms"

type FormHandler struct {
	forms *forms.Service
	orgs  *organizations.Service
}

func NewFormHandler(formSvc *forms.Service, orgs *organizations.Service) *FormHandler {
	return &FormHandler{forms: formSvc, orgs: orgs}
}

// publicForm resolves a published form for a tenant that has the forms
// feature. Tenants without it answer 404 so form slugs do not leak.
func (h *FormHandler) publicForm(w http.ResponseWriter, r *http.Request) *models.Form {
	org, err := h.orgs.GetBySlug(r.Context(), param(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return nil
	}
	if !features.HasFeatureAccess(org.Flags(), formsFeature).HasAccess {
		writeServiceError(w, forms.ErrNotFound)
		return nil
	}

	form, err := h.forms.GetPublished(r.Context(), org.ID, param(r, "form"))
	if err != nil {
		writeServiceError(w, err)
		return nil
	}
	return form
}

func (h *FormHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	form := h.publicForm(w, r)
	if form == nil {
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{
		"slug":  form.Slug,
		"title": form.Title,
		"steps": form.Steps,
	})
}

type SubmitRequest struct {
	Answers map[string]any `json:"answers"`
}

func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	form := h.publicForm(w, r)
	if form == nil {
		return
	}

	var req SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.forms.Submit(r.Context(), form, req.Answers, middleware.ExtractClientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusCreated, map[string]any{"id": sub.ID, "created_at": sub.CreatedAt})
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req forms.CreateFormInput
	if !decodeJSON(w, r, &req) {
		return
	}

	org, _ := middleware.OrganizationFromContext(r.Context())
	session, _ := middleware.SessionFromContext(r.Context())
	form, err := h.forms.CreateForm(r.Context(), org.ID, session.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusCreated, form)
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	org, _ := middleware.OrganizationFromContext(r.Context())
	list, err := h.forms.List(r.Context(), org.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{"forms": list})
}

func (h *FormHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	org, _ := middleware.OrganizationFromContext(r.Context())
	form, err := h.forms.Get(r.Context(), org.ID, param(r, "form"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	subs, err := h.forms.ListSubmissions(r.Context(), form.ID, queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}
