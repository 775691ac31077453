package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestResolver(override bool) *Resolver {
	return NewResolver(ResolverConfig{
		ApexDomains:         []string{"decode.app", "localhost"},
		DefaultHost:         "localhost",
		AdminPathPrefixes:   []string{"/admin", "/organizations", "/api/admin"},
		AllowTenantOverride: override,
	})
}

func newTestGate() *Gate {
	return NewGate(GateConfig{
		PublicPaths:        []string{"/", "/login", "/admin/login"},
		PublicPathPrefixes: []string{"/api/auth/", "/f/"},
		LoginPath:          "/login",
		AdminLoginPath:     "/admin/login",
		SessionCookies:     []string{"__Secure-decode.session_token", "decode.session_token"},
	})
}

func newTestPipeline() Pipeline {
	return NewPipeline(map[string]string{"/admin-login": "/admin/login"}, newTestResolver(false), newTestGate())
}

func TestResolver_Classify(t *testing.T) {
	res := newTestResolver(true)

	tests := []struct {
		name     string
		host     string
		path     string
		override string
		surface  Surface
		slug     string
	}{
		{"Tenant Subdomain", "cliente.decode.app", "/dashboard", "", SurfaceTenant, "cliente"},
		{"Tenant With Port", "cliente.localhost:3000", "/", "", SurfaceTenant, "cliente"},
		{"Uppercase Host", "Cliente.Decode.App", "/", "", SurfaceTenant, "cliente"},
		{"Apex Root", "decode.app", "/", "", SurfacePublic, ""},
		{"Apex Admin Path", "decode.app", "/organizations", "", SurfaceAdmin, ""},
		{"Console Host", "console.decode.app", "/organizations", "", SurfaceAdmin, ""},
		{"Admin Host", "admin.decode.app", "/", "", SurfaceAdmin, ""},
		{"Admin Path On Tenant Host", "cliente.decode.app", "/admin/clients", "", SurfaceAdmin, ""},
		{"Admin Prefix Needs Boundary", "decode.app", "/administrivia", "", SurfacePublic, ""},
		{"Www Is Not Tenant", "www.decode.app", "/", "", SurfacePublic, ""},
		{"Single Label", "intranet", "/", "", SurfacePublic, ""},
		{"IP Address", "127.0.0.1:8080", "/", "", SurfacePublic, ""},
		{"Empty Host", "", "/", "", SurfacePublic, ""},
		{"Override Header", "localhost:3000", "/dashboard", "acme", SurfaceTenant, "acme"},
		{"Host Beats Override", "cliente.decode.app", "/", "acme", SurfaceTenant, "cliente"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := res.Classify(tt.host, tt.path, tt.override)
			if route.Surface != tt.surface {
				t.Errorf("surface = %s, want %s", route.Surface, tt.surface)
			}
			if route.TenantSlug != tt.slug {
				t.Errorf("slug = %q, want %q", route.TenantSlug, tt.slug)
			}
		})
	}
}

func TestResolver_OverrideDisabled(t *testing.T) {
	route := newTestResolver(false).Classify("localhost", "/dashboard", "acme")
	if route.Surface != SurfacePublic || route.TenantSlug != "" {
		t.Errorf("override honored while disabled: %+v", route)
	}
}

func TestResolver_ReservedNeverTenant(t *testing.T) {
	res := newTestResolver(false)
	for label := range reservedSubdomains {
		for _, path := range []string{"/", "/dashboard", "/f/form"} {
			route := res.Classify(label+".decode.app", path, "")
			if route.TenantSlug != "" || route.Surface == SurfaceTenant {
				t.Errorf("%s.decode.app%s classified as tenant: %+v", label, path, route)
			}
		}
	}
}

func TestResolver_DefaultHost(t *testing.T) {
	info := newTestResolver(false).ParseHost("  ")
	if info.Hostname != "localhost" {
		t.Errorf("expected default host, got %q", info.Hostname)
	}
}

func TestGate_PublicPrefixWithoutCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "http://cliente.decode.app/f/briefing", nil)

	route, directive := newTestPipeline().Run(req)
	if directive != nil {
		t.Fatalf("expected pass-through, got %+v", directive)
	}
	if !route.Public {
		t.Error("expected route marked public")
	}
}

func TestGate_AcceptsEitherCookie(t *testing.T) {
	gate := newTestGate()
	for _, name := range []string{"__Secure-decode.session_token", "decode.session_token"} {
		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: name, Value: "token"})
		if !gate.HasSessionCookie(req) {
			t.Errorf("cookie %s not accepted", name)
		}
	}

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "decode.session_token", Value: ""})
	if gate.HasSessionCookie(req) {
		t.Error("empty cookie accepted")
	}
}

func TestPipeline_TenantWithoutSession(t *testing.T) {
	req := httptest.NewRequest("GET", "http://cliente.decode.app/dashboard", nil)

	route, directive := newTestPipeline().Run(req)
	if route.TenantSlug != "cliente" {
		t.Errorf("expected slug cliente, got %q", route.TenantSlug)
	}
	if directive == nil {
		t.Fatal("expected redirect")
	}
	if directive.Location != "/login?callbackUrl=%2Fdashboard" {
		t.Errorf("unexpected location %q", directive.Location)
	}
	if directive.Status != http.StatusTemporaryRedirect {
		t.Errorf("unexpected status %d", directive.Status)
	}
}

func TestPipeline_AdminWithoutSession(t *testing.T) {
	req := httptest.NewRequest("GET", "http://console.decode.app/organizations", nil)

	_, directive := newTestPipeline().Run(req)
	if directive == nil || directive.Location != "/admin/login?callbackUrl=%2Forganizations" {
		t.Errorf("unexpected directive %+v", directive)
	}
}

func TestPipeline_AdminWithSession(t *testing.T) {
	req := httptest.NewRequest("GET", "http://console.decode.app/organizations", nil)
	req.AddCookie(&http.Cookie{Name: "__Secure-decode.session_token", Value: "abc"})

	route, directive := newTestPipeline().Run(req)
	if directive != nil {
		t.Fatalf("expected pass-through, got %+v", directive)
	}
	if !route.Authenticated {
		t.Error("expected authenticated route")
	}
	if got := route.Headers().Get(HeaderAdminAccess); got != "true" {
		t.Errorf("x-admin-access = %q, want true", got)
	}
}

func TestPipeline_LegacyRedirectFirst(t *testing.T) {
	req := httptest.NewRequest("GET", "http://cliente.decode.app/admin-login/?next=x", nil)

	route, directive := newTestPipeline().Run(req)
	if directive == nil {
		t.Fatal("expected redirect")
	}
	if directive.Location != "/admin/login?next=x" || directive.Status != http.StatusPermanentRedirect {
		t.Errorf("unexpected directive %+v", directive)
	}
	if route.Surface != SurfacePublic || route.TenantSlug != "" {
		t.Errorf("classification ran before legacy redirect: %+v", route)
	}
}
