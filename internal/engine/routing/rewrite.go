package routing

import (
	"net/http"
	"strings"
)

// LegacyRedirects returns the rewrite stage. Deprecated paths redirect before
// any classification happens; the query string is preserved.
func LegacyRedirects(aliases map[string]string) Stage {
	table := make(map[string]string, len(aliases))
	for from, to := range aliases {
		table[strings.TrimSuffix(from, "/")] = to
	}

	return func(r *http.Request, route *Route) *Directive {
		path := r.URL.Path
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		to, ok := table[path]
		if !ok {
			return nil
		}
		if r.URL.RawQuery != "" {
			to += "?" + r.URL.RawQuery
		}
		return &Directive{Status: http.StatusPermanentRedirect, Location: to}
	}
}

// NewPipeline assembles the rewrite, classify and authorize stages.
func NewPipeline(aliases map[string]string, resolver *Resolver, gate *Gate) Pipeline {
	return Pipeline{
		LegacyRedirects(aliases),
		resolver.Stage(),
		gate.Stage(),
	}
}
