// Package routing maps an inbound Host header onto the logical section of the
// site that should serve it. One route tree serves the marketing site, the
// admin dashboard and every project microsite.
package routing

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	AdminSubdomain = "admin"
	AdminPrefix    = "/admin"
	TenantPrefix   = "/s/"
)

// Section is the part of the site a request was classified into.
type Section string

const (
	SectionRoot   Section = "root"
	SectionAdmin  Section = "admin"
	SectionTenant Section = "tenant"
)

var (
	staticAsset = regexp.MustCompile(`\.(css|js|png|jpg|jpeg|webp|avif|svg|ico|gif|txt|xml|map)$`)
	loopback    = regexp.MustCompile(`^(localhost|127\.0\.0\.1)(:\d+)?$`)

	// DefaultBypassPrefixes are never rewritten: health and internal endpoints, and the API.
	DefaultBypassPrefixes = []string{"/_internal", "/api"}

	authPrefixes = []string{"/login", "/signup"}
)

// Router is immutable after construction and safe for concurrent use.
type Router struct {
	RootDomain      string
	PreviewSuffixes []string
	BypassPrefixes  []string
}

func New(rootDomain string, previewSuffixes []string) Router {
	return Router{
		RootDomain:      strings.ToLower(rootDomain),
		PreviewSuffixes: previewSuffixes,
		BypassPrefixes:  DefaultBypassPrefixes,
	}
}

// Subdomain returns the tenant token for host. It reports false for the root
// domain, loopback hosts, preview deployments and any host outside the root
// domain.
func (r Router) Subdomain(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	root := r.RootDomain

	if host == "" || loopback.MatchString(host) || host == root {
		return "", false
	}
	for _, suffix := range r.PreviewSuffixes {
		if suffix != "" && strings.HasSuffix(host, suffix) {
			return "", false
		}
	}

	sub, ok := strings.CutSuffix(host, "."+root)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// Classify returns the section and tenant token for host.
func (r Router) Classify(host string) (Section, string) {
	sub, ok := r.Subdomain(host)
	switch {
	case !ok:
		return SectionRoot, ""
	case sub == AdminSubdomain:
		return SectionAdmin, sub
	default:
		return SectionTenant, sub
	}
}

// Rewrite returns the logical path for (host, path) and whether it differs
// from path. The host itself is never changed.
func (r Router) Rewrite(host, path string) (string, bool) {
	if r.bypass(path) {
		return path, false
	}

	section, sub := r.Classify(host)
	switch section {
	case SectionAdmin:
		if hasAnyPrefix(path, authPrefixes) || strings.HasPrefix(path, AdminPrefix) {
			return path, false
		}
		return AdminPrefix + trimRoot(path), true
	case SectionTenant:
		if strings.HasPrefix(path, TenantPrefix) {
			return path, false
		}
		return TenantPrefix + sub + trimRoot(path), true
	default:
		return path, false
	}
}

func (r Router) bypass(path string) bool {
	return staticAsset.MatchString(path) || hasAnyPrefix(path, r.BypassPrefixes)
}

func trimRoot(path string) string {
	if path == "/" || path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Route is what the middleware decided for a request.
type Route struct {
	Section      Section
	Subdomain    string
	OriginalPath string
	Rewritten    bool
}

type routeKey struct{}

// FromContext returns the Route stored by Middleware.
func FromContext(ctx context.Context) (Route, bool) {
	route, ok := ctx.Value(routeKey{}).(Route)
	return route, ok
}

// Middleware rewrites the request path before next dispatches it.
func (r Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		section, sub := r.Classify(req.Host)
		path, rewritten := r.Rewrite(req.Host, req.URL.Path)

		route := Route{Section: section, Subdomain: sub, OriginalPath: req.URL.Path, Rewritten: rewritten}
		ctx := context.WithValue(req.Context(), routeKey{}, route)

		if !rewritten {
			next.ServeHTTP(w, req.WithContext(ctx))
			return
		}

		log.Debug().
			Str("host", req.Host).
			Str("from", req.URL.Path).
			Str("to", path).
			Msg("host rewrite")

		out := req.WithContext(ctx)
		u := *req.URL
		u.Path = path
		u.RawPath = ""
		out.URL = &u
		next.ServeHTTP(w, out)
	})
}
