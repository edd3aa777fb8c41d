// Command homefinder is a terminal client for the HomeFinder marketplace.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"homefinder-client/internal/apiclient"
	"homefinder-client/internal/config"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/observability/tracing"
	"homefinder-client/internal/storage"
	"homefinder-client/internal/store"
)

// cookieStorageKey holds the session cookies between invocations.
const cookieStorageKey = "cookie-jar"

type app struct {
	client  *apiclient.Client
	stores  *store.Stores
	storage storage.Storage
	logger  *slog.Logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, cleanup, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "auth":
		err = a.handleAuth(ctx, args)
	case "listings":
		err = a.handleListings(ctx, args)
	case "favorites":
		err = a.handleFavorites(ctx, args)
	case "inquiries":
		err = a.handleInquiries(ctx, args)
	case "chats":
		err = a.handleChats(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		cleanup()
		os.Exit(1)
	}

	a.saveCookies(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.App.LogLevel)

	shutdownTracing, err := tracing.Init(ctx, log, cfg.App.Name+"-cli", cfg.App.Environment, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", slog.String("error", err.Error()))
		shutdownTracing = func(context.Context) error { return nil }
	}

	st, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		CSRFCookie: cfg.API.CSRFCookie,
		CSRFHeader: cfg.API.CSRFHeader,
		Logger:     log,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	a := &app{client: client, stores: store.New(client, st, log), storage: st, logger: log}
	a.loadCookies(ctx)
	a.stores.Session.Rehydrate(ctx)

	cleanup := func() {
		a.stores.Chats.Wait()
		_ = shutdownTracing(context.Background())
		_ = st.Close()
	}
	return a, cleanup, nil
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// loadCookies restores the jar saved by the previous invocation. The jar only
// exposes names and values, so cookies come back host-wide without an expiry;
// an expired session is then rejected by the backend with a 401.
func (a *app) loadCookies(ctx context.Context) {
	data, err := a.storage.GetItem(ctx, cookieStorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		a.logger.Warn("load cookies", slog.String("error", err.Error()))
		return
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		a.logger.Warn("discarding corrupted cookies", slog.String("error", err.Error()))
		return
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	a.client.SetCookies(cookies)
}

func (a *app) saveCookies(ctx context.Context) {
	cookies := a.client.Cookies()
	if len(cookies) == 0 {
		_ = a.storage.RemoveItem(ctx, cookieStorageKey)
		return
	}
	saved := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, _ := json.Marshal(saved)
	if err := a.storage.SetItem(ctx, cookieStorageKey, data); err != nil {
		a.logger.Warn("save cookies", slog.String("error", err.Error()))
	}
}

func printUsage() {
	fmt.Println(`HomeFinder CLI

Usage:
  homefinder <command> <subcommand> [flags]

Commands:
  auth       login, register, logout, whoami, profile, reset
  listings   list, featured, mine, show, create, update, delete, feature, upload
  favorites  list, toggle
  inquiries  list, send, status
  chats      list, open, send, read

Environment:
  HOMEFINDER_API_URL   backend base URL (default http://localhost:5000/api)
  SESSION_STORAGE      memory, file, sqlite, mysql, postgres or redis`)
}
