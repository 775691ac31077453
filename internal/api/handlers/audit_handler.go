package handlers

import (
	"net/http"

	"decode/internal/engine/organizations"
	"decode/internal/pkg/errors"
	"decode/internal/platform/audit"
)

type AuditHandler struct {
	audit *audit.Logger
	orgs  *organizations.Service
}

func NewAuditHandler(auditLogger *audit.Logger, orgs *organizations.Service) *AuditHandler {
	return &AuditHandler{audit: auditLogger, orgs: orgs}
}

// List returns recent entries, filtered by ?organization=<slug> when given.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	var orgID string
	if slug := r.URL.Query().Get("organization"); slug != "" {
		org, err := h.orgs.GetBySlug(r.Context(), slug)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		orgID = org.ID
	}

	logs, err := h.audit.List(r.Context(), orgID, queryInt(r, "limit", 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
