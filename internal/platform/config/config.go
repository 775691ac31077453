package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Tenancy   TenancyConfig   `mapstructure:"tenancy"`
	Cache     CacheConfig     `mapstructure:"cache"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Workers   WorkersConfig   `mapstructure:"workers"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Environment  string        `mapstructure:"environment"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// TrustedProxies are addresses or CIDR ranges whose forwarding headers
	// are used to find the client address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Development reports whether the server runs outside production.
func (c ServerConfig) Development() bool {
	return c.Environment != "production"
}

type DatabaseConfig struct {
	Global GlobalDBConfig `mapstructure:"global"`
}

type GlobalDBConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type SessionConfig struct {
	AppName       string        `mapstructure:"app_name"`
	Secret        string        `mapstructure:"secret"`
	TTL           time.Duration `mapstructure:"ttl"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
	// CookieDomain shares the session across tenant subdomains, e.g. ".decode.app".
	CookieDomain string `mapstructure:"cookie_domain"`
}

// CookieName returns the plain session cookie name, e.g. "decode.session_token".
func (c SessionConfig) CookieName() string {
	return c.AppName + ".session_token"
}

// SecureCookieName returns the cookie name used over HTTPS in production.
func (c SessionConfig) SecureCookieName() string {
	return "__Secure-" + c.CookieName()
}

type TenancyConfig struct {
	ApexDomains         []string          `mapstructure:"apex_domains"`
	DefaultHost         string            `mapstructure:"default_host"`
	AdminPathPrefixes   []string          `mapstructure:"admin_path_prefixes"`
	PublicPaths         []string          `mapstructure:"public_paths"`
	PublicPathPrefixes  []string          `mapstructure:"public_path_prefixes"`
	LegacyRedirects     map[string]string `mapstructure:"legacy_redirects"`
	LoginPath           string            `mapstructure:"login_path"`
	AdminLoginPath      string            `mapstructure:"admin_login_path"`
	AllowTenantOverride bool              `mapstructure:"allow_tenant_override"`
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver"`
	RedisURL string        `mapstructure:"redis_url"`
	OrgTTL   time.Duration `mapstructure:"org_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	FormSubmissionsPerMinute int `mapstructure:"form_submissions_per_minute"`
	LoginPerMinute           int `mapstructure:"login_per_minute"`
}

type WorkersConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			Environment:  "development",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Global: GlobalDBConfig{URL: "file:./data/decode.db", MaxConnections: 10},
		},
		Session: SessionConfig{
			AppName: "decode",
			TTL:     7 * 24 * time.Hour,
		},
		Tenancy: TenancyConfig{
			ApexDomains:        []string{"decode.app", "localhost"},
			DefaultHost:        "localhost",
			AdminPathPrefixes:  []string{"/admin", "/organizations", "/clients", "/api/admin"},
			PublicPaths:        []string{"/", "/login", "/admin/login", "/signup", "/forgot-password", "/healthz"},
			PublicPathPrefixes: []string{"/api/auth/", "/f/", "/api/forms/", "/static/"},
			LegacyRedirects: map[string]string{
				"/admin-login": "/admin/login",
				"/login/admin": "/admin/login",
			},
			LoginPath:      "/login",
			AdminLoginPath: "/admin/login",
		},
		Cache: CacheConfig{Driver: "memory", OrgTTL: 5 * time.Minute},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Tenant-Id"},
			MaxAge:         600,
		},
		RateLimit: RateLimitConfig{FormSubmissionsPerMinute: 20, LoginPerMinute: 30},
		Workers:   WorkersConfig{ReconcileInterval: time.Hour},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
