package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  environment: production
session:
  secret: from-file
  ttl: 2h
tenancy:
  apex_domains: [example.com]
cache:
  driver: redis
  org_ttl: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Development() {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if cfg.Session.TTL != 2*time.Hour || cfg.Session.Secret != "from-file" {
		t.Errorf("Unexpected session config %+v", cfg.Session)
	}
	if !slices.Equal(cfg.Tenancy.ApexDomains, []string{"example.com"}) {
		t.Errorf("ApexDomains = %v", cfg.Tenancy.ApexDomains)
	}
	if cfg.Cache.Driver != "redis" || cfg.Cache.OrgTTL != 30*time.Second {
		t.Errorf("Unexpected cache config %+v", cfg.Cache)
	}

	// Untouched sections keep their defaults.
	if cfg.Tenancy.LoginPath != "/login" || cfg.Session.AppName != "decode" {
		t.Errorf("Defaults lost: %+v", cfg.Tenancy)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "session:\n  secret: from-file\n")
	t.Setenv("SESSION_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.Secret != "from-env" {
		t.Errorf("Secret = %q, want from-env", cfg.Session.Secret)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSessionCookieNames(t *testing.T) {
	cfg := Default().Session
	if cfg.CookieName() != "decode.session_token" {
		t.Errorf("CookieName() = %q", cfg.CookieName())
	}
	if cfg.SecureCookieName() != "__Secure-decode.session_token" {
		t.Errorf("SecureCookieName() = %q", cfg.SecureCookieName())
	}
}

func TestDefault_CORSOriginsExplicit(t *testing.T) {
	cfg := Default()
	if len(cfg.CORS.AllowedOrigins) == 0 {
		t.Fatal("Expected explicit default CORS origins")
	}
	for _, o := range cfg.CORS.AllowedOrigins {
		if o == "*" {
			t.Errorf("Wildcard origin in defaults")
		}
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	path := writeConfig(t, "server:\n  trusted_proxies: [10.0.0.0/8, 127.0.0.1]\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("TrustedProxies = %v", cfg.Server.TrustedProxies)
	}
	if len(Default().Server.TrustedProxies) != 0 {
		t.Error("Expected no trusted proxies by default")
	}
}
