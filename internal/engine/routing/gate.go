package routing

import (
	"net/http"
	"net/url"
	"strings"
)

type GateConfig struct {
	PublicPaths        []string
	PublicPathPrefixes []string
	LoginPath          string
	AdminLoginPath     string
	// SessionCookies are checked in order; any non-empty value counts.
	SessionCookies []string
}

// Gate is the coarse authentication filter. It only looks at the path and
// cookie presence and never validates the session itself.
type Gate struct {
	public         map[string]bool
	publicPrefixes []string
	loginPath      string
	adminLoginPath string
	cookies        []string
}

func NewGate(cfg GateConfig) *Gate {
	public := make(map[string]bool, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = true
	}
	g := &Gate{
		public:         public,
		publicPrefixes: cfg.PublicPathPrefixes,
		loginPath:      cfg.LoginPath,
		adminLoginPath: cfg.AdminLoginPath,
		cookies:        cfg.SessionCookies,
	}
	if g.loginPath == "" {
		g.loginPath = "/login"
	}
	if g.adminLoginPath == "" {
		g.adminLoginPath = g.loginPath
	}
	return g
}

func (g *Gate) IsPublic(path string) bool {
	if g.public[path] {
		return true
	}
	for _, prefix := range g.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// HasSessionCookie reports whether any configured session cookie is set.
func (g *Gate) HasSessionCookie(r *http.Request) bool {
	for _, name := range g.cookies {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return true
		}
	}
	return false
}

// LoginRedirect builds the login location for a surface with the callback path.
func (g *Gate) LoginRedirect(surface Surface, path string) string {
	target := g.loginPath
	if surface == SurfaceAdmin {
		target = g.adminLoginPath
	}
	return target + "?callbackUrl=" + url.QueryEscape(path)
}

// Decide applies the gate to an already classified route.
func (g *Gate) Decide(route *Route, r *http.Request) *Directive {
	if g.IsPublic(route.Path) {
		route.Public = true
		return nil
	}

	if !g.HasSessionCookie(r) {
		return &Directive{
			Status:   http.StatusTemporaryRedirect,
			Location: g.LoginRedirect(route.Surface, route.Path),
		}
	}

	route.Authenticated = true
	return nil
}

// Stage returns the authorize stage of the pipeline.
func (g *Gate) Stage() Stage {
	return func(r *http.Request, route *Route) *Directive {
		return g.Decide(route, r)
	}
}
