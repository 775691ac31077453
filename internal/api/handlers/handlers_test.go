package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"decode/internal/engine/features"
	"decode/internal/engine/forms"
	"decode/internal/engine/organizations"
	"decode/internal/pkg/validator"
	"decode/internal/platform/auth"
)

func TestSafeCallback(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tasks", "/tasks"},
		{"/tasks?tab=mine", "/tasks?tab=mine"},
		{"", "/dashboard"},
		{"https://evil.example", "/dashboard"},
		{"//evil.example", "/dashboard"},
		{"/\\evil.example", "/dashboard"},
	}

	for _, tt := range tests {
		if got := safeCallback(tt.in, "/dashboard"); got != tt.want {
			t.Errorf("safeCallback(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Org Not Found", organizations.ErrNotFound, http.StatusNotFound},
		{"Form Not Found", forms.ErrNotFound, http.StatusNotFound},
		{"Slug Taken", organizations.ErrSlugTaken, http.StatusConflict},
		{"Reserved Slug", validator.ErrReservedSlug, http.StatusBadRequest},
		{"Wrapped Dev Feature", fmt.Errorf("%w: %q", features.ErrDevFeature, "ai-assistant"), http.StatusBadRequest},
		{"Weak Password", auth.ErrWeakPassword, http.StatusBadRequest},
		{"Validation", &forms.ValidationError{Fields: map[string]string{"a": "required"}}, http.StatusUnprocessableEntity},
		{"Unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeServiceError(rr, tt.err)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}
