package main

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"homefinder-client/internal/apiclient"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/storage"
)

func newTestApp(t *testing.T, st storage.Storage) *app {
	t.Helper()
	client, err := apiclient.New(apiclient.Options{
		BaseURL: "http://localhost:5000/api",
		Logger:  logger.Discard(),
	})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return &app{client: client, storage: st, logger: logger.Discard()}
}

func TestCookiesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()

	first := newTestApp(t, mem)
	first.client.SetCookies([]*http.Cookie{
		{Name: "access_token_cookie", Value: "jwt", Path: "/"},
		{Name: "csrf_access_token", Value: "csrf-1", Path: "/"},
	})
	first.saveCookies(ctx)

	second := newTestApp(t, mem)
	second.loadCookies(ctx)
	if got := second.client.CSRFToken(); got != "csrf-1" {
		t.Errorf("CSRF token after restart = %q", got)
	}
	names := map[string]string{}
	for _, c := range second.client.Cookies() {
		names[c.Name] = c.Value
	}
	if names["access_token_cookie"] != "jwt" || len(names) != 2 {
		t.Errorf("cookies after restart = %v", names)
	}
}

func TestSaveCookies_EmptyJarRemovesEntry(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	_ = mem.SetItem(ctx, cookieStorageKey, []byte(`[{"name":"csrf_access_token","value":"old"}]`))

	a := newTestApp(t, mem)
	a.saveCookies(ctx)
	if _, err := mem.GetItem(ctx, cookieStorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetItem after logout = %v, want ErrNotFound", err)
	}
}

func TestLoadCookies_CorruptedEntry(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	_ = mem.SetItem(ctx, cookieStorageKey, []byte(`not json`))

	a := newTestApp(t, mem)
	a.loadCookies(ctx)
	if cookies := a.client.Cookies(); len(cookies) != 0 {
		t.Errorf("cookies = %v", cookies)
	}
}
