// Package tenant resolves which tenant (if any) an inbound request targets.
//
// The resolver runs as middleware ahead of every handler. It classifies the
// request's effective hostname as the root app surface, a reserved platform
// subdomain, a foreign host, or a tenant subdomain, and in the tenant case
// rewrites the request path into the internal /site/<slug> namespace so a
// single content handler can serve every published site.
//
// Resolution is pure and stateless: it never touches storage and never
// errors. A hostname it cannot make sense of falls open to the main app
// surface rather than being rewritten incorrectly. Whether the slug actually
// exists is a downstream concern (a 404 from the site handler).
package tenant
