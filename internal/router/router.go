package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"homefinder-client/internal/handler"
	"homefinder-client/internal/middleware"
	"homefinder-client/internal/observability/metrics"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	PropertyHandler *handler.PropertyHandler
	InquiryHandler  *handler.InquiryHandler
	ChatHandler     *handler.ChatHandler
	UploadHandler   *handler.UploadHandler

	// AuthMiddleware rejects anonymous requests; OptionalAuthMiddleware
	// only attaches claims when a session cookie is present.
	AuthMiddleware         func(http.Handler) http.Handler
	OptionalAuthMiddleware func(http.Handler) http.Handler
	CSRFMiddleware         func(http.Handler) http.Handler

	AllowedOrigins []string
	Logger         *slog.Logger
}

func chain(r chi.Router, mws ...func(http.Handler) http.Handler) {
	for _, mw := range mws {
		if mw != nil {
			r.Use(mw)
		}
	}
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-CSRF-TOKEN"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if cfg.UploadHandler != nil {
		r.Get("/uploads/{name}", cfg.UploadHandler.Serve)
	}

	r.Route("/api", func(r chi.Router) {
		// PUBLIC routes (no auth required)
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
			r.Get("/status", cfg.Handler.Status)
		}
		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/reset-password-request", cfg.AuthHandler.ResetPasswordRequest)
			r.Post("/auth/reset-password", cfg.AuthHandler.ResetPassword)
		}

		// Session-aware routes: anonymous callers are allowed
		r.Group(func(r chi.Router) {
			chain(r, cfg.OptionalAuthMiddleware, cfg.CSRFMiddleware)

			if cfg.AuthHandler != nil {
				r.Post("/auth/logout", cfg.AuthHandler.Logout)
			}
			if cfg.PropertyHandler != nil {
				r.Get("/properties", cfg.PropertyHandler.List)
				r.Get("/properties/{id}", cfg.PropertyHandler.Get)
			}
			if cfg.InquiryHandler != nil {
				r.Post("/inquiries", cfg.InquiryHandler.Create)
			}
		})

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			chain(r, cfg.AuthMiddleware, cfg.CSRFMiddleware)

			if cfg.UserHandler != nil {
				r.Get("/users/profile", cfg.UserHandler.Profile)
				r.Put("/users/profile", cfg.UserHandler.UpdateProfile)
			}

			if cfg.PropertyHandler != nil {
				r.Post("/properties", cfg.PropertyHandler.Create)
				r.Put("/properties/{id}", cfg.PropertyHandler.Update)
				r.Delete("/properties/{id}", cfg.PropertyHandler.Delete)
				r.Patch("/properties/{id}/feature", cfg.PropertyHandler.ToggleFeature)

				r.Get("/favourites", cfg.PropertyHandler.Favourites)
				r.Post("/favourites", cfg.PropertyHandler.AddFavourite)
				r.Get("/favourites/{property_id}", cfg.PropertyHandler.Favourite)
				r.Delete("/favourites/{property_id}", cfg.PropertyHandler.RemoveFavourite)
			}

			if cfg.InquiryHandler != nil {
				r.Get("/inquiries", cfg.InquiryHandler.List)
				r.Get("/inquiries/user/{id}", cfg.InquiryHandler.ForUser)
				r.Get("/inquiries/property/{id}", cfg.InquiryHandler.ForProperty)
				r.Put("/inquiries/{id}", cfg.InquiryHandler.UpdateStatus)
				r.Put("/inquiries/{id}/status", cfg.InquiryHandler.UpdateStatus)
			}

			if cfg.ChatHandler != nil {
				r.Get("/chat", cfg.ChatHandler.List)
				r.Get("/chat/{id}/messages", cfg.ChatHandler.Messages)
				r.Post("/chat/{id}/messages", cfg.ChatHandler.Send)
				r.Post("/chat/{id}/read", cfg.ChatHandler.MarkRead)
			}

			if cfg.UploadHandler != nil {
				r.Post("/upload", cfg.UploadHandler.Upload)
			}
		})
	})

	return r
}
