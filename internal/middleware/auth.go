package middleware

import (
	"net/http"

	"github.com/jungyuya/gallery-uploader/internal/response"
)

// RequireAdmin returns middleware that only lets requests through when
// the authorization header equals the configured admin secret. The
// secret is a static shared token compared verbatim; there is no token
// scheme or prefix.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("Authorization") != secret {
				response.Forbidden(w, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
