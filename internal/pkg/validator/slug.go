package validator

import (
	"errors"
	"strings"

	"decode/internal/engine/routing"
)

const (
	minSlugLength = 2
	maxSlugLength = 48
)

var (
	ErrInvalidSlug  = errors.New("slug must be 2-48 lowercase letters, digits or hyphens and cannot start or end with a hyphen")
	ErrReservedSlug = errors.New("slug is reserved")
)

// ValidateSlug checks that slug can serve as a tenant subdomain label.
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLength || len(slug) > maxSlugLength {
		return ErrInvalidSlug
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return ErrInvalidSlug
	}
	for _, c := range slug {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' {
			return ErrInvalidSlug
		}
	}

	// A reserved subdomain would route to the admin/public surface instead of the tenant.
	if routing.IsReservedSubdomain(slug) {
		return ErrReservedSlug
	}
	return nil
}

// Slugify derives a candidate slug from a display name.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, c := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimSuffix(slug[:maxSlugLength], "-")
	}
	return slug
}
