package handlers

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "decode/internal/api/context"
	"decode/internal/api/middleware"
	"decode/internal/engine/features"
	"decode/internal/engine/forms"
	"decode/internal/engine/organizations"
	"decode/internal/pkg/errors"
	"decode/internal/pkg/validator"
	"decode/internal/platform/auth"
)

func param(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return false
	}
	return true
}

// actor describes the caller for audit entries.
func actor(r *http.Request) organizations.Actor {
	a := organizations.Actor{
		IPAddress: middleware.ExtractClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		a.UserID = session.UserID
		a.ImpersonatedBy = session.ImpersonatedBy
	}
	return a
}

// writeServiceError maps domain errors onto the JSON error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *forms.ValidationError
	switch {
	case stdErrors.As(err, &verr):
		errors.WriteError(w, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput, "Some answers are invalid", verr)
	case stdErrors.Is(err, organizations.ErrNotFound), stdErrors.Is(err, forms.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, err.Error(), nil)
	case stdErrors.Is(err, organizations.ErrSlugTaken), stdErrors.Is(err, forms.ErrSlugTaken):
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, err.Error(), nil)
	case stdErrors.Is(err, validator.ErrReservedSlug):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeReservedSlug, err.Error(), nil)
	case stdErrors.Is(err, features.ErrDevFeature):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeDevFeature, err.Error(), nil)
	case stdErrors.Is(err, validator.ErrInvalidSlug),
		stdErrors.Is(err, validator.ErrInvalidEmail),
		stdErrors.Is(err, organizations.ErrInvalidName),
		stdErrors.Is(err, organizations.ErrOwnerRequired),
		stdErrors.Is(err, auth.ErrWeakPassword),
		stdErrors.Is(err, forms.ErrInvalidForm),
		stdErrors.Is(err, features.ErrUnknownFeature):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
	default:
		log.Error().Err(err).Msg("request failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error", nil)
	}
}
