package features

import (
	"errors"
	"slices"
	"testing"
)

func TestHasFeatureAccess(t *testing.T) {
	tests := []struct {
		name     string
		org      *Flags
		key      string
		expected Access
	}{
		{
			name:     "No Organization",
			org:      nil,
			key:      "dashboard",
			expected: Access{Reason: ReasonNoOrganization},
		},
		{
			name:     "Unknown Key",
			org:      &Flags{AllowedFeatures: []string{"dashbord"}},
			key:      "dashbord",
			expected: Access{Reason: ReasonInvalidFeature},
		},
		{
			name:     "Beta Not Granted",
			org:      &Flags{AllowedFeatures: []string{"dashboard", "calendar"}},
			key:      "mail",
			expected: Access{Reason: ReasonNotAllowed},
		},
		{
			name:     "Stable Granted",
			org:      &Flags{AllowedFeatures: []string{"dashboard", "calendar"}},
			key:      "calendar",
			expected: Access{HasAccess: true, Reason: ReasonAllowed},
		},
		{
			name:     "Sandbox Gets Dev",
			org:      &Flags{AllowedFeatures: []string{}, IsSandbox: true},
			key:      "ai-assistant",
			expected: Access{HasAccess: true, Reason: ReasonAllowed},
		},
		{
			name:     "Dev Stored On Normal Org",
			org:      &Flags{AllowedFeatures: []string{"ai-assistant"}},
			key:      "ai-assistant",
			expected: Access{Reason: ReasonDevOnly},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasFeatureAccess(tt.org, tt.key)
			if got != tt.expected {
				t.Errorf("HasFeatureAccess() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestSandboxAccessesEveryFeature(t *testing.T) {
	orgs := []*Flags{
		{IsSandbox: true},
		{IsSandbox: true, AllowedFeatures: []string{"mail"}},
	}
	for _, org := range orgs {
		for _, f := range All() {
			if got := HasFeatureAccess(org, f.Key); !got.HasAccess {
				t.Errorf("sandbox denied %s: %+v", f.Key, got)
			}
		}
		if got := len(ListAccessibleFeatures(org)); got != len(registry) {
			t.Errorf("expected %d accessible features for sandbox, got %d", len(registry), got)
		}
	}
}

func TestDevFeaturesDeniedWithoutSandbox(t *testing.T) {
	every := make([]string, 0, len(registry))
	for _, f := range registry {
		every = append(every, f.Key)
	}
	org := &Flags{AllowedFeatures: every}

	for _, f := range registry {
		got := HasFeatureAccess(org, f.Key)
		if f.Status == StatusDev && got.HasAccess {
			t.Errorf("dev feature %s granted to non-sandbox org", f.Key)
		}
		if f.Status != StatusDev && !got.HasAccess {
			t.Errorf("feature %s denied despite grant: %+v", f.Key, got)
		}
	}
}

func TestListActivatableFeatures(t *testing.T) {
	got := ListActivatableFeatures()

	var want []Feature
	for _, f := range All() {
		if f.Status != StatusDev {
			want = append(want, f)
		}
	}

	if !slices.Equal(got, want) {
		t.Errorf("ListActivatableFeatures() = %v, want %v", got, want)
	}
	for _, f := range got {
		if f.Status == StatusDev {
			t.Errorf("dev feature %s exposed as activatable", f.Key)
		}
	}
}

func TestListSidebarFeatures(t *testing.T) {
	org := &Flags{AllowedFeatures: []string{"reports", "calendar"}}

	got := ListSidebarFeatures(org)
	if len(got) != 1 || got[0].Key != "calendar" {
		t.Errorf("expected only calendar in sidebar, got %v", got)
	}
}

func TestToggleFeature(t *testing.T) {
	original := []string{"dashboard", "calendar"}

	once, err := ToggleFeature(original, "mail")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(once, "mail") {
		t.Errorf("expected mail to be added, got %v", once)
	}
	if slices.Contains(original, "mail") {
		t.Error("input slice was modified")
	}

	twice, err := ToggleFeature(once, "mail")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(twice, original) {
		t.Errorf("toggling twice = %v, want %v", twice, original)
	}

	removed, err := ToggleFeature(original, "calendar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(removed, []string{"dashboard"}) {
		t.Errorf("expected calendar removed, got %v", removed)
	}
}

func TestToggleFeature_Rejects(t *testing.T) {
	if _, err := ToggleFeature(nil, "ai-assistant"); !errors.Is(err, ErrDevFeature) {
		t.Errorf("expected ErrDevFeature, got %v", err)
	}
	if _, err := ToggleFeature(nil, "nope"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}
}

func TestNormalizeAssignment(t *testing.T) {
	got, err := NormalizeAssignment([]string{"mail", "dashboard", "mail"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{"dashboard", "mail"}) {
		t.Errorf("NormalizeAssignment() = %v", got)
	}

	if _, err := NormalizeAssignment([]string{"dashboard", "ai-assistant"}); !errors.Is(err, ErrDevFeature) {
		t.Errorf("expected ErrDevFeature, got %v", err)
	}
}

func TestPruneGrants(t *testing.T) {
	got, changed := PruneGrants([]string{"dashboard", "ai-assistant", "gone"})
	if !changed {
		t.Error("expected change")
	}
	if !slices.Equal(got, []string{"dashboard"}) {
		t.Errorf("PruneGrants() = %v", got)
	}

	_, changed = PruneGrants([]string{"mail"})
	if changed {
		t.Error("expected no change")
	}
}

func TestRegistryIsCopied(t *testing.T) {
	all := All()
	all[0].Status = StatusDev

	f, _ := Lookup(all[0].Key)
	if f.Status == StatusDev {
		t.Error("mutating All() result changed the registry")
	}
}
