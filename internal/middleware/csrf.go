package middleware

import (
	"crypto/subtle"
	"net/http"

	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/response"
)

// CSRFConfig names the double-submit cookie and header.
type CSRFConfig struct {
	CookieName string
	HeaderName string
}

// NewCSRFMiddleware enforces double-submit CSRF protection on authenticated
// state-changing requests: the header must equal the token bound into the
// session JWT. Run it after the auth middleware.
func NewCSRFMiddleware(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "csrf_access_token"
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-CSRF-TOKEN"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil || isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(cfg.HeaderName)
			if header == "" {
				response.Error(w, apierror.Unauthorized("Missing CSRF token"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(header), []byte(claims.CSRF)) != 1 {
				response.Error(w, apierror.Unauthorized("CSRF double submit tokens do not match"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
