package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"decode/internal/pkg/errors"
	"decode/internal/platform/cache"
)

type HealthHandler struct {
	db    *sql.DB
	cache cache.OrgCache
}

func NewHealthHandler(db *sql.DB, orgCache cache.OrgCache) *HealthHandler {
	return &HealthHandler{db: db, cache: orgCache}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "healthy",
		"cache":    "healthy",
	}
	status, code := "healthy", http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		checks["cache"] = "unhealthy: " + err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	}

	errors.WriteJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}
