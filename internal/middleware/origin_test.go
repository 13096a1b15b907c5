package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testAllowList = []string{"https://gallery.example.com"}

func TestFilterOrigin(t *testing.T) {
	var reached bool
	handler := FilterOrigin(testAllowList)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		origin     string
		wantStatus int
		wantPass   bool
	}{
		{"no origin header", "", http.StatusOK, true},
		{"allow-listed origin", "https://gallery.example.com", http.StatusOK, true},
		{"localhost any port", "http://localhost:5173", http.StatusOK, true},
		{"loopback ipv4", "http://127.0.0.1:3000", http.StatusOK, true},
		{"loopback ipv6", "http://[::1]:8080", http.StatusOK, true},
		{"unlisted origin", "https://evil.example.net", http.StatusForbidden, false},
		{"subdomain of allowed origin", "https://sub.gallery.example.com", http.StatusForbidden, false},
		{"garbage origin", "not a url", http.StatusForbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, "/images", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantPass, reached)
		})
	}
}

func TestAllowOrigin(t *testing.T) {
	allow := AllowOrigin(testAllowList)
	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)

	assert.True(t, allow(req, "https://gallery.example.com"))
	assert.True(t, allow(req, "http://localhost:9999"))
	assert.False(t, allow(req, "https://evil.example.net"))
}
