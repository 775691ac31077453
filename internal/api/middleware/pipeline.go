package middleware

import (
	"context"
	"net/http"

	apiContext "decode/internal/api/context"
	"decode/internal/engine/routing"
)

// Pipeline installs the routing pipeline as the outermost handler. Redirect
// directives end the request; otherwise the route is annotated on both the
// request and response headers and stored in the request context.
func Pipeline(p routing.Pipeline) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Clients cannot forge the annotations.
			r.Header.Del(routing.HeaderTenantSlug)
			r.Header.Del(routing.HeaderAdminAccess)

			route, directive := p.Run(r)
			for name, values := range route.Headers() {
				for _, v := range values {
					w.Header().Add(name, v)
					r.Header.Add(name, v)
				}
			}

			if directive != nil {
				http.Redirect(w, r, directive.Location, directive.Status)
				return
			}

			ctx := context.WithValue(r.Context(), apiContext.Route, route)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
