package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"homefinder-client/internal/logger"
	"homefinder-client/pkg/apierror"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second, Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "/api"}); err == nil {
		t.Fatal("expected an error for a relative base url")
	}
}

func TestDo_DecodesJSONAndSendsBody(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/inquiries", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["message"]})
	})
	c, _ := newTestClient(t, r)

	var out map[string]string
	status, err := c.Post(context.Background(), "/inquiries", map[string]string{"message": "hello"}, &out)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if status != http.StatusCreated || out["echo"] != "hello" {
		t.Errorf("status=%d out=%v", status, out)
	}
}

func TestDo_QueryParameters(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/properties", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"query": r.URL.RawQuery})
	})
	c, _ := newTestClient(t, r)

	var out map[string]string
	q := map[string][]string{"minPrice": {"200000"}, "location": {"Springfield"}}
	if _, err := c.Get(context.Background(), "/properties", q, &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out["query"] != "location=Springfield&minPrice=200000" {
		t.Errorf("query = %q", out["query"])
	}
}

func TestDo_ErrorResponses(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Property not found"}`))
	})
	c, _ := newTestClient(t, r)

	status, err := c.Get(context.Background(), "/properties/99", nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d", status)
	}
	apiErr, ok := apierror.As(err)
	if !ok {
		t.Fatalf("expected *apierror.Error, got %T", err)
	}
	if apiErr.Code != "NOT_FOUND" || apiErr.Message != "Property not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if string(apiErr.Body) != `{"error":"Property not found"}` {
		t.Errorf("Body = %q", apiErr.Body)
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base, Timeout: time.Second, Logger: logger.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	status, err := c.Get(context.Background(), "/properties", nil, nil)
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
	if !apierror.IsNetwork(err) {
		t.Errorf("expected a network error, got %v", err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	r := chi.NewRouter()
	r.Get("/api/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	c, _ := newTestClient(t, r)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, "/slow", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestCSRF_HeaderOnMutatingRequests(t *testing.T) {
	var seen atomic.Value
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "access_token_cookie", Value: "jwt", Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "csrf_access_token", Value: "csrf-123", Path: "/"})
		_, _ = w.Write([]byte(`{"user":{"id":1}}`))
	})
	record := func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Method + " " + r.Header.Get("X-CSRF-TOKEN"))
	}
	r.Get("/api/properties", record)
	r.Delete("/api/favourites/{id}", record)
	c, _ := newTestClient(t, r)
	ctx := context.Background()

	// Before login there is no token, so nothing is attached.
	if _, err := c.Delete(ctx, "/favourites/1", nil); err != nil {
		t.Fatal(err)
	}
	if got := seen.Load(); got != "DELETE " {
		t.Errorf("before login: %v", got)
	}

	if _, err := c.Post(ctx, "/auth/login", map[string]string{}, nil); err != nil {
		t.Fatal(err)
	}
	if c.CSRFToken() != "csrf-123" {
		t.Fatalf("CSRFToken = %q", c.CSRFToken())
	}

	if _, err := c.Get(ctx, "/properties", nil, nil); err != nil {
		t.Fatal(err)
	}
	if got := seen.Load(); got != "GET " {
		t.Errorf("GET carried CSRF header: %v", got)
	}

	if _, err := c.Delete(ctx, "/favourites/1", nil); err != nil {
		t.Fatal(err)
	}
	if got := seen.Load(); got != "DELETE csrf-123" {
		t.Errorf("DELETE header = %v", got)
	}
}

func TestUnauthorizedHook(t *testing.T) {
	r := chi.NewRouter()
	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"Token has expired"}`))
	}
	r.Post("/api/auth/login", unauthorized)
	r.Get("/api/favourites", unauthorized)
	c, _ := newTestClient(t, r)

	var calls atomic.Int32
	c.OnUnauthorized(func() { calls.Add(1) })

	_, err := c.Post(context.Background(), "/auth/login", map[string]string{}, nil)
	if apierror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("login err = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("hook fired for login: %d", calls.Load())
	}

	_, err = c.Get(context.Background(), "/favourites", nil, nil)
	if apierror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("favourites err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("hook calls = %d, want 1", calls.Load())
	}
}

func TestUpload(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRF-TOKEN") != "" {
			t.Error("unexpected CSRF header without a cookie")
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://cdn.example.com/" + header.Filename + "?size=" + string(rune('0'+len(data))),
		})
	})
	c, _ := newTestClient(t, r)

	got, err := c.Upload(context.Background(), UploadField, "/tmp/photos/front.jpg", strings.NewReader("12345"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got != "https://cdn.example.com/front.jpg?size=5" {
		t.Errorf("secure url = %q", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/properties/42/feature": "/properties/:id/feature",
		"/chat/7/messages":       "/chat/:id/messages",
		"properties":             "/properties",
		"/inquiries/user/3f2b8c1e-9d4a-4b6e-8f1a-2c3d4e5f6a7b": "/inquiries/user/:id",
	}
	for in, want := range tests {
		if got := routeLabel(in); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
