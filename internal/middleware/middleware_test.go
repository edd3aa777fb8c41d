package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homefinder-client/internal/cache"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/service"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Errorf("id = %q, want the caller's", seen)
	}
}

func TestLogging(t *testing.T) {
	var buf strings.Builder
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/x", nil))

	var entry map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/api/x" || entry["request_id"] == "" {
		t.Errorf("entry = %v", entry)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "internal server error" {
		t.Errorf("error = %q", msg)
	}
}

func newTokens(t *testing.T, ttl time.Duration) *service.TokenService {
	c := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = c.Close() })
	return service.NewTokenService("secret", ttl, c)
}

func withToken(method, token string) *http.Request {
	req := httptest.NewRequest(method, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	return req
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	var actor service.Actor
	h := NewAuthMiddleware(AuthConfig{Tokens: tokens})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = GetActor(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec) != `Missing cookie "access_token_cookie"` {
		t.Errorf("missing cookie: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	token, _, err := tokens.Issue("7", "admin")
	if err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withToken(http.MethodGet, token))
	if rec.Code != http.StatusOK || actor.ID != "7" || !actor.IsAdmin() {
		t.Errorf("status = %d, actor = %+v", rec.Code, actor)
	}

	forged, _, _ := service.NewTokenService("other", time.Hour, nil).Issue("7", "admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withToken(http.MethodGet, forged))
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec) != "Invalid token" {
		t.Errorf("forged token: status = %d", rec.Code)
	}
}

func TestAuthMiddleware_Revoked(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	token, _, _ := tokens.Issue("7", "user")
	claims, err := tokens.Validate(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if err := tokens.Revoke(context.Background(), claims); err != nil {
		t.Fatal(err)
	}

	h := NewAuthMiddleware(AuthConfig{Tokens: tokens})(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withToken(http.MethodGet, token))
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec) != "Token has been revoked" {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Expired(t *testing.T) {
	tokens := newTokens(t, time.Nanosecond)
	token, _, _ := tokens.Issue("7", "user")
	time.Sleep(1100 * time.Millisecond)

	h := NewAuthMiddleware(AuthConfig{Tokens: tokens})(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withToken(http.MethodGet, token))
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec) != "Token has expired" {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Optional(t *testing.T) {
	var actor service.Actor
	h := NewAuthMiddleware(AuthConfig{Tokens: newTokens(t, 0), Optional: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = GetActor(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || actor.ID != "" {
		t.Errorf("anonymous request: status = %d, actor = %+v", rec.Code, actor)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withToken(http.MethodGet, "garbage"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid token let through: %d", rec.Code)
	}
}

func TestCSRFMiddleware(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	token, csrf, _ := tokens.Issue("7", "user")
	h := NewAuthMiddleware(AuthConfig{Tokens: tokens})(
		NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(okHandler)))

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"safe method", http.MethodGet, "", http.StatusOK},
		{"missing header", http.MethodPost, "", http.StatusUnauthorized},
		{"mismatch", http.MethodDelete, "wrong", http.StatusUnauthorized},
		{"match", http.MethodPut, csrf, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withToken(tt.method, token)
			if tt.header != "" {
				req.Header.Set("X-CSRF-TOKEN", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
