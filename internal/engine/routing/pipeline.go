package routing

import "net/http"

// Surface is the part of the product a request targets.
type Surface string

const (
	SurfacePublic Surface = "public"
	SurfaceAdmin  Surface = "admin"
	SurfaceTenant Surface = "tenant"
)

const (
	HeaderTenantSlug     = "x-tenant-slug"
	HeaderAdminAccess    = "x-admin-access"
	HeaderTenantOverride = "x-tenant-id"
)

// Route is the classification attached to a request by the pipeline.
type Route struct {
	Host          string
	Path          string
	Surface       Surface
	TenantSlug    string
	FromOverride  bool
	Public        bool
	Authenticated bool
}

// Directive short-circuits the pipeline with a redirect.
type Directive struct {
	Status   int
	Location string
}

// Stage inspects the request and may update route or stop the pipeline.
type Stage func(r *http.Request, route *Route) *Directive

// Pipeline runs stages in order until one returns a directive.
type Pipeline []Stage

func (p Pipeline) Run(r *http.Request) (Route, *Directive) {
	route := Route{Path: r.URL.Path, Surface: SurfacePublic}
	for _, stage := range p {
		if d := stage(r, &route); d != nil {
			return route, d
		}
	}
	return route, nil
}

// Headers returns the annotations downstream handlers read.
func (r Route) Headers() http.Header {
	h := http.Header{}
	if r.TenantSlug != "" {
		h.Set(HeaderTenantSlug, r.TenantSlug)
	}
	if r.Surface == SurfaceAdmin {
		h.Set(HeaderAdminAccess, "true")
	}
	return h
}
