package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"decode/internal/api/middleware"
	"decode/internal/engine/organizations"
	"decode/internal/pkg/errors"
	"decode/internal/pkg/validator"
	"decode/internal/platform/audit"
	"decode/internal/platform/auth"
	"decode/internal/platform/config"
	"decode/internal/platform/models"
	"decode/internal/platform/repositories"
)

const (
	defaultTenantCallback = "/dashboard"
	defaultAdminCallback  = "/organizations"
)

type AuthHandler struct {
	userRepo *repositories.UserRepository
	orgs     *organizations.Service
	tokenSvc *auth.TokenService
	audit    *audit.Logger
	session  config.SessionConfig
}

func NewAuthHandler(userRepo *repositories.UserRepository, orgs *organizations.Service, tokenSvc *auth.TokenService, auditLogger *audit.Logger, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
		orgs:     orgs,
		tokenSvc: tokenSvc,
		audit:    auditLogger,
		session:  session,
	}
}

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callback_url"`
}

type LoginResponse struct {
	User        *models.User  `json:"user"`
	Session     *auth.Session `json:"session"`
	CallbackURL string        `json:"callback_url"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin only accepts users with the system admin role.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := h.authenticate(w, r, req.Email, req.Password)
	if user == nil {
		return
	}
	if admin && user.Role != models.SystemRoleAdmin {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Administrator access required", nil)
		return
	}

	session, ok := h.startSession(w, user, "")
	if !ok {
		return
	}

	if err := h.userRepo.UpdateLastLogin(r.Context(), user.ID, time.Now().Unix()); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	}

	fallback := defaultTenantCallback
	if admin {
		fallback = defaultAdminCallback
	}
	errors.WriteJSON(w, http.StatusOK, LoginResponse{
		User:        user,
		Session:     session,
		CallbackURL: safeCallback(req.CallbackURL, fallback),
	})
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, email, password string) *models.User {
	email, err := validator.NormalizeEmail(email)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return nil
	}

	user, err := h.userRepo.GetByEmail(r.Context(), email)
	if err != nil {
		log.Error().Err(err).Msg("failed to load user")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return nil
	}
	return user
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *models.User, impersonatedBy string) (*auth.Session, bool) {
	token, err := h.tokenSvc.Issue(user.ID, user.Email, user.Role, impersonatedBy)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue session")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate session", nil)
		return nil, false
	}
	h.setCookie(w, token, int(h.tokenSvc.TTL().Seconds()))

	return &auth.Session{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		ImpersonatedBy: impersonatedBy,
		ExpiresAt:      time.Now().Add(h.tokenSvc.TTL()).Unix(),
	}, true
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, value string, maxAge int) {
	name := h.session.CookieName()
	if h.session.SecureCookies {
		name = h.session.SecureCookieName()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.session.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.session.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout clears both cookie names so a stale cookie from either mode cannot
// keep passing the gate.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range middleware.SessionCookieNames(h.session) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.session.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   strings.HasPrefix(name, "__Secure-"),
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the caller's session together with the workspaces they
// belong to.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFromContext(r.Context())

	orgs, err := h.orgs.ListForUser(r.Context(), session.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to list organizations")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	tenantAdmin, err := h.orgs.IsTenantAdmin(r.Context(), session.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to check tenant admin")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	errors.WriteJSON(w, http.StatusOK, map[string]any{
		"session":       session,
		"organizations": orgs,
		"tenant_admin":  tenantAdmin,
	})
}

// Impersonate lets a system admin act as another user. It must run behind
// RequireSystemAdmin.
func (h *AuthHandler) Impersonate(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.SessionFromContext(r.Context())

	target, err := h.userRepo.GetByID(r.Context(), param(r, "user_id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to load user")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if target == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}
	if target.ID == admin.UserID || target.Role == models.SystemRoleAdmin {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Cannot impersonate an administrator", nil)
		return
	}

	session, ok := h.startSession(w, target, admin.UserID)
	if !ok {
		return
	}

	a := actor(r)
	h.audit.Log(r.Context(), audit.AuditLog{
		UserID:       admin.UserID,
		Action:       audit.ActionImpersonationStart,
		ResourceType: "user",
		ResourceID:   target.ID,
		Metadata:     map[string]any{"target_email": target.Email},
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
	})

	errors.WriteJSON(w, http.StatusOK, LoginResponse{User: target, Session: session, CallbackURL: defaultTenantCallback})
}

// StopImpersonation restores the original admin's session.
func (h *AuthHandler) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.SessionFromContext(r.Context())
	if !current.Impersonating() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Not impersonating", nil)
		return
	}

	admin, err := h.userRepo.GetByID(r.Context(), current.ImpersonatedBy)
	if err != nil {
		log.Error().Err(err).Msg("failed to load user")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if admin == nil || admin.Role != models.SystemRoleAdmin {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Administrator access required", nil)
		return
	}

	session, ok := h.startSession(w, admin, "")
	if !ok {
		return
	}

	a := actor(r)
	h.audit.Log(r.Context(), audit.AuditLog{
		UserID:       admin.ID,
		Action:       audit.ActionImpersonationStop,
		ResourceType: "user",
		ResourceID:   current.UserID,
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
	})

	errors.WriteJSON(w, http.StatusOK, LoginResponse{User: admin, Session: session, CallbackURL: defaultAdminCallback})
}

// safeCallback only accepts same-origin absolute paths.
func safeCallback(callback, fallback string) string {
	if !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") || strings.HasPrefix(callback, "/\\") {
		return fallback
	}
	return callback
}
