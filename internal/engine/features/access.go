package features

import (
	"errors"
	"fmt"
	"slices"
)

// Reason explains an access decision.
type Reason string

const (
	ReasonAllowed        Reason = "allowed"
	ReasonNoOrganization Reason = "no-organization"
	ReasonInvalidFeature Reason = "invalid-feature"
	ReasonDevOnly        Reason = "dev-only"
	ReasonNotAllowed     Reason = "not-allowed"
)

var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrDevFeature     = errors.New("features in development cannot be assigned to organizations")
)

// Flags are the entitlement fields of an organization.
type Flags struct {
	AllowedFeatures []string
	IsSandbox       bool
}

type Access struct {
	HasAccess bool   `json:"has_access"`
	Reason    Reason `json:"reason"`
}

// HasFeatureAccess reports whether an organization with the given flags may use
// the feature. A nil org is denied with ReasonNoOrganization.
func HasFeatureAccess(org *Flags, key string) Access {
	if org == nil {
		return Access{Reason: ReasonNoOrganization}
	}

	feature, ok := Lookup(key)
	if !ok {
		return Access{Reason: ReasonInvalidFeature}
	}

	if org.IsSandbox {
		return Access{HasAccess: true, Reason: ReasonAllowed}
	}

	// Dev features are sandbox-only even if the key was stored for the org.
	if feature.Status == StatusDev {
		return Access{Reason: ReasonDevOnly}
	}

	if slices.Contains(org.AllowedFeatures, key) {
		return Access{HasAccess: true, Reason: ReasonAllowed}
	}
	return Access{Reason: ReasonNotAllowed}
}

// ListAccessibleFeatures returns the registry entries the organization may use.
func ListAccessibleFeatures(org *Flags) []Feature {
	if org == nil {
		return []Feature{}
	}
	if org.IsSandbox {
		return All()
	}

	out := make([]Feature, 0, len(org.AllowedFeatures))
	for _, f := range registry {
		if HasFeatureAccess(org, f.Key).HasAccess {
			out = append(out, f)
		}
	}
	return out
}

// ListSidebarFeatures returns the accessible features flagged for navigation.
func ListSidebarFeatures(org *Flags) []Feature {
	accessible := ListAccessibleFeatures(org)
	out := accessible[:0]
	for _, f := range accessible {
		if f.ShowInSidebar {
			out = append(out, f)
		}
	}
	return out
}

// ListActivatableFeatures returns the features an admin may toggle for a normal tenant.
func ListActivatableFeatures() []Feature {
	out := make([]Feature, 0, len(registry))
	for _, f := range registry {
		if f.Status != StatusDev {
			out = append(out, f)
		}
	}
	return out
}

// ValidateAssignable checks that key names a feature an admin may grant.
func ValidateAssignable(key string) error {
	feature, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, key)
	}
	if feature.Status == StatusDev {
		return fmt.Errorf("%w: %q", ErrDevFeature, key)
	}
	return nil
}

// ToggleFeature returns allowed with key added if absent or removed if present.
// The input slice is not modified.
func ToggleFeature(allowed []string, key string) ([]string, error) {
	if err := ValidateAssignable(key); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(allowed)+1)
	found := false
	for _, k := range allowed {
		if k == key {
			found = true
			continue
		}
		out = append(out, k)
	}
	if !found {
		out = append(out, key)
	}
	return out, nil
}

// NormalizeAssignment validates every key and returns them deduplicated in
// registry order. Any dev or unknown key rejects the whole set.
func NormalizeAssignment(keys []string) ([]string, error) {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if err := ValidateAssignable(k); err != nil {
			return nil, err
		}
		seen[k] = true
	}

	out := make([]string, 0, len(seen))
	for _, f := range registry {
		if seen[f.Key] {
			out = append(out, f.Key)
		}
	}
	return out, nil
}

// PruneGrants drops keys that are unknown or in development. It reports
// whether anything was removed.
func PruneGrants(allowed []string) ([]string, bool) {
	out := make([]string, 0, len(allowed))
	for _, k := range allowed {
		if ValidateAssignable(k) == nil {
			out = append(out, k)
		}
	}
	return out, len(out) != len(allowed)
}
