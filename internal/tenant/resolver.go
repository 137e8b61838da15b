package tenant

import (
	"net/http"
	"strings"
)

// Class is the outcome of classifying a request hostname.
type Class int

const (
	// ClassPassthrough covers every case the router has no opinion on:
	// the root domain, its www variant, the loopback dev alias, foreign
	// hosts, and reserved platform subdomains.
	ClassPassthrough Class = iota
	// ClassTenant means the hostname is a tenant subdomain of the root
	// domain and the request should be rewritten to that tenant's site.
	ClassTenant
)

// Classification is the per-request routing decision. Tenant is only set
// when Class == ClassTenant.
type Classification struct {
	Class  Class
	Tenant string
}

// defaultReserved are subdomains that are platform surfaces, never tenant
// slugs, regardless of configuration.
var defaultReserved = []string{"app", "api", "www", "admin"}

// Resolver classifies hostnames against a configured root domain.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	rootDomain string
	devHost    string
	reserved   map[string]struct{}
}

// NewResolver creates a resolver for the given root domain and loopback
// development alias. Extra reserved subdomains (e.g. a configured admin
// subdomain) are merged with the built-in set.
func NewResolver(rootDomain, devHost string, extraReserved ...string) *Resolver {
	reserved := make(map[string]struct{}, len(defaultReserved)+len(extraReserved))
	for _, s := range defaultReserved {
		reserved[s] = struct{}{}
	}
	for _, s := range extraReserved {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			reserved[s] = struct{}{}
		}
	}
	return &Resolver{
		rootDomain: strings.ToLower(rootDomain),
		devHost:    strings.ToLower(devHost),
		reserved:   reserved,
	}
}

// EffectiveHost derives the request's hostname, preferring the forwarded
// host header set by the edge proxy over the direct Host header. Multiple
// comma-separated values take the first; any port suffix is stripped and
// the result is lower-cased. A malformed header yields "".
func EffectiveHost(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if i := strings.IndexByte(host, ','); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimSpace(host)
	// Strip port suffix. IPv6 literals keep their brackets intact.
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return strings.ToLower(host)
}

// Classify decides what the given hostname addresses. It never errors;
// anything unrecognizable is a pass-through.
func (rv *Resolver) Classify(host string) Classification {
	if host == "" || host == rv.devHost {
		return Classification{Class: ClassPassthrough}
	}
	if host == rv.rootDomain || host == "www."+rv.rootDomain {
		return Classification{Class: ClassPassthrough}
	}
	if !strings.HasSuffix(host, "."+rv.rootDomain) {
		// Foreign host: the CDN or a higher layer should have filtered
		// this; the router has no opinion.
		return Classification{Class: ClassPassthrough}
	}
	sub := strings.TrimSuffix(host, "."+rv.rootDomain)
	if sub == "" {
		return Classification{Class: ClassPassthrough}
	}
	if _, ok := rv.reserved[sub]; ok {
		return Classification{Class: ClassPassthrough}
	}
	return Classification{Class: ClassTenant, Tenant: sub}
}

// internalPrefixes are path namespaces the router never rewrites: API and
// auth calls, health probes, and already-rewritten site paths work the
// same on any hostname.
var internalPrefixes = []string{"/api", "/auth", "/health", "/site"}

func isInternalPath(path string) bool {
	for _, p := range internalPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Middleware rewrites tenant-subdomain requests into the /site/<slug>
// namespace before any handler logic runs. Requests already addressed to
// an internal path, and non-tenant requests, pass through untouched.
// Query parameters are preserved.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := rv.Classify(EffectiveHost(r))
		if c.Class == ClassTenant && !isInternalPath(r.URL.Path) {
			r.URL.Path = RewritePath(c.Tenant, r.URL.Path)
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}

// RewritePath maps an original request path onto the tenant's content
// namespace: "/" becomes "/site/<sub>", anything else is prefixed.
func RewritePath(sub, path string) string {
	if path == "/" || path == "" {
		return "/site/" + sub
	}
	return "/site/" + sub + path
}
