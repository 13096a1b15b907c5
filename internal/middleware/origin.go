package middleware

import (
	"net"
	"net/http"
	"net/url"

	"github.com/jungyuya/gallery-uploader/internal/response"
)

// AllowOrigin returns the origin predicate shared between the CORS
// handler and FilterOrigin. An origin is accepted when it is on the
// allow-list or its host is localhost/loopback at any port.
func AllowOrigin(allowed []string) func(r *http.Request, origin string) bool {
	return func(_ *http.Request, origin string) bool {
		return originAllowed(origin, allowed)
	}
}

// FilterOrigin rejects requests carrying a disallowed Origin header with
// 403 before any handler runs. Requests without an Origin header
// (curl, server-to-server) pass through untouched.
func FilterOrigin(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !originAllowed(origin, allowed) {
				response.Forbidden(w, "origin not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
