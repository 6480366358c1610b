package auth

import (
	"net"
	"net/http"
)

// Identity is the per-request client metadata recorded on the session row.
// Both fields may be absent. Capture is pure and side-effect free.
type Identity struct {
	IP        *string
	UserAgent *string
}

// IdentityFromRequest captures the client IP and User-Agent. Mount chi's
// RealIP middleware ahead of the gate so RemoteAddr reflects the true client
// behind a proxy.
func IdentityFromRequest(r *http.Request) Identity {
	var ident Identity
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		ident.IP = &host
	} else if r.RemoteAddr != "" {
		addr := r.RemoteAddr
		ident.IP = &addr
	}
	if ua := r.UserAgent(); ua != "" {
		ident.UserAgent = &ua
	}
	return ident
}
