// Package mockapi assembles the in-memory marketplace backend used for local
// development and end-to-end tests of the client.
package mockapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"homefinder-client/internal/cache"
	"homefinder-client/internal/handler"
	"homefinder-client/internal/middleware"
	"homefinder-client/internal/router"
	"homefinder-client/internal/service"
)

// Options configures a Server. Zero values select development defaults.
type Options struct {
	// Cache holds revoked tokens, reset tokens and uploads. A memory cache
	// is created, and closed with the server, when nil.
	Cache cache.Cache

	JWTSecret         string
	TokenTTL          time.Duration
	Seed              bool
	AllowedOrigins    []string
	CSRFCookie        string
	CSRFHeader        string
	SecureCookies     bool
	MaxUploadBytes    int64
	ExposeResetTokens bool
	Logger            *slog.Logger
}

// Server is the fake backend. It serves the REST API under /api.
type Server struct {
	handler   http.Handler
	repos     service.Repositories
	tokens    *service.TokenService
	cache     cache.Cache
	ownsCache bool
	logger    *slog.Logger
}

// New wires repositories, services, handlers and routes.
func New(ctx context.Context, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cache: opts.Cache, logger: logger}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(time.Minute)
		s.ownsCache = true
	}

	s.repos = service.NewMemoryRepositories()
	if opts.Seed {
		if err := service.Seed(ctx, s.repos, logger); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	s.tokens = service.NewTokenService(opts.JWTSecret, opts.TokenTTL, s.cache)
	authService := service.NewAuthService(s.repos.Users, s.tokens, s.cache, logger)
	listingService := service.NewListingService(s.repos, logger)
	inquiryService := service.NewInquiryService(s.repos, logger)
	chatService := service.NewChatService(s.repos, logger)

	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		CSRFName: opts.CSRFCookie,
		Secure:   opts.SecureCookies,
		TTL:      s.tokens.TTL(),
	}, logger)
	authHandler.ExposeResetToken = opts.ExposeResetTokens

	s.handler = router.New(router.Config{
		Handler:         handler.New(s.cache),
		AuthHandler:     authHandler,
		UserHandler:     handler.NewUserHandler(authService),
		PropertyHandler: handler.NewPropertyHandler(listingService),
		InquiryHandler:  handler.NewInquiryHandler(inquiryService),
		ChatHandler:     handler.NewChatHandler(chatService),
		UploadHandler:   handler.NewUploadHandler(s.cache, opts.MaxUploadBytes),

		AuthMiddleware:         middleware.NewAuthMiddleware(middleware.AuthConfig{Tokens: s.tokens}),
		OptionalAuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthConfig{Tokens: s.tokens, Optional: true}),
		CSRFMiddleware: middleware.NewCSRFMiddleware(middleware.CSRFConfig{
			CookieName: opts.CSRFCookie,
			HeaderName: opts.CSRFHeader,
		}),

		AllowedOrigins: opts.AllowedOrigins,
		Logger:         logger,
	})
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Repositories exposes the backing data, for tests and seeding.
func (s *Server) Repositories() service.Repositories {
	return s.repos
}

// Tokens exposes the session token service.
func (s *Server) Tokens() *service.TokenService {
	return s.tokens
}

// Close releases the cache when the server created it.
func (s *Server) Close() error {
	if s.ownsCache {
		return s.cache.Close()
	}
	return nil
}
