package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"homefinder-client/internal/apiclient"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/storage"
)

// backend is a scripted fake of the marketplace API that records every call.
type backend struct {
	chi.Router

	mu    sync.Mutex
	calls []string
}

func newBackend() *backend {
	b := &backend{Router: chi.NewRouter()}
	b.Router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.calls = append(b.calls, r.Method+" "+r.URL.Path)
			b.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	return b
}

// count returns how many times method path was requested.
func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type harness struct {
	stores  *Stores
	client  *apiclient.Client
	storage *storage.MemoryStorage
	server  *httptest.Server
}

func newHarness(t *testing.T, b *backend) *harness {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Options{
		BaseURL: srv.URL + "/api",
		Timeout: 5 * time.Second,
		Logger:  logger.Discard(),
	})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	mem := storage.NewMemoryStorage()
	return &harness{
		stores:  New(client, mem, logger.Discard()),
		client:  client,
		storage: mem,
		server:  srv,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
