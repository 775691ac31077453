package validator

import (
	"errors"
	"testing"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug string
		want error
	}{
		{"cliente", nil},
		{"acme-2", nil},
		{"a", ErrInvalidSlug},
		{"-acme", ErrInvalidSlug},
		{"acme-", ErrInvalidSlug},
		{"Acme", ErrInvalidSlug},
		{"acme.io", ErrInvalidSlug},
		{"admin", ErrReservedSlug},
		{"console", ErrReservedSlug},
		{"www", ErrReservedSlug},
		{"api", ErrReservedSlug},
		{"app", ErrReservedSlug},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if err := ValidateSlug(tt.slug); !errors.Is(err, tt.want) {
				t.Errorf("ValidateSlug(%q) = %v, want %v", tt.slug, err, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Acme Corp":         "acme-corp",
		"  Café & Bar  ":    "caf-bar",
		"Decode -- Studio!": "decode-studio",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got, err := NormalizeEmail(" Ana@Acme.IO "); err != nil || got != "ana@acme.io" {
		t.Errorf("NormalizeEmail() = %q, %v", got, err)
	}
	for _, bad := range []string{"", "ana", "ana@", "Ana <ana@acme.io>", "ana@localhost"} {
		if _, err := NormalizeEmail(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
