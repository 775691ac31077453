package routing

import (
	"net"
	"net/http"
	"strings"
)

// reservedSubdomains are never tenant slugs.
var reservedSubdomains = map[string]bool{
	"www":     true,
	"api":     true,
	"admin":   true,
	"console": true,
	"app":     true,
}

// IsReservedSubdomain reports whether label is kept for the admin/public surface.
func IsReservedSubdomain(label string) bool {
	return reservedSubdomains[strings.ToLower(label)]
}

type ResolverConfig struct {
	ApexDomains         []string
	DefaultHost         string
	AdminPathPrefixes   []string
	AllowTenantOverride bool
}

// HostInfo is the parsed form of a Host header.
type HostInfo struct {
	Hostname   string
	FirstLabel string
	TenantSlug string
}

type Resolver struct {
	apex          map[string]bool
	defaultHost   string
	adminPrefixes []string
	override      bool
}

func NewResolver(cfg ResolverConfig) *Resolver {
	apex := make(map[string]bool, len(cfg.ApexDomains))
	for _, d := range cfg.ApexDomains {
		apex[strings.ToLower(d)] = true
	}
	defaultHost := cfg.DefaultHost
	if defaultHost == "" {
		defaultHost = "localhost"
	}
	return &Resolver{
		apex:          apex,
		defaultHost:   defaultHost,
		adminPrefixes: cfg.AdminPathPrefixes,
		override:      cfg.AllowTenantOverride,
	}
}

// ParseHost extracts the hostname and candidate tenant slug from a Host header.
func (res *Resolver) ParseHost(host string) HostInfo {
	hostname := stripPort(strings.TrimSpace(host))
	hostname = strings.TrimSuffix(strings.ToLower(hostname), ".")
	if hostname == "" || strings.ContainsAny(hostname, "/ @") {
		hostname = res.defaultHost
	}

	info := HostInfo{Hostname: hostname}
	if res.apex[hostname] {
		return info
	}

	labels := strings.Split(hostname, ".")
	if len(labels) < 2 || net.ParseIP(hostname) != nil {
		return info
	}

	info.FirstLabel = labels[0]
	if info.FirstLabel != "" && !reservedSubdomains[info.FirstLabel] {
		info.TenantSlug = info.FirstLabel
	}
	return info
}

// isAdminPath matches admin prefixes on a path-segment boundary.
func (res *Resolver) isAdminPath(path string) bool {
	for _, prefix := range res.adminPrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Classify decides the surface for host and path. The override header value
// is only honored when the resolver allows it.
func (res *Resolver) Classify(host, path, override string) Route {
	info := res.ParseHost(host)
	route := Route{Host: info.Hostname, Path: path, Surface: SurfacePublic}

	if info.FirstLabel == "admin" || info.FirstLabel == "console" || res.isAdminPath(path) {
		route.Surface = SurfaceAdmin
		return route
	}

	if info.TenantSlug != "" {
		route.Surface = SurfaceTenant
		route.TenantSlug = info.TenantSlug
		return route
	}

	if override = strings.TrimSpace(override); res.override && override != "" {
		route.Surface = SurfaceTenant
		route.TenantSlug = override
		route.FromOverride = true
	}
	return route
}

// Stage returns the classify stage of the pipeline.
func (res *Resolver) Stage() Stage {
	return func(r *http.Request, route *Route) *Directive {
		classified := res.Classify(r.Host, r.URL.Path, r.Header.Get(HeaderTenantOverride))
		route.Host = classified.Host
		route.Surface = classified.Surface
		route.TenantSlug = classified.TenantSlug
		route.FromOverride = classified.FromOverride
		return nil
	}
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(h, "[]")
	}
	// Bracketed IPv6 without port.
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host[1 : len(host)-1]
	}
	return host
}
