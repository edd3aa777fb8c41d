package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/response"
)

// AccessTokenCookie is the cookie that carries the session JWT.
const AccessTokenCookie = "access_token_cookie"

// ClaimsKey is the context key for validated token claims.
const ClaimsKey contextKey = "claims"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Tokens *service.TokenService
	// Optional lets anonymous requests through; a present but invalid
	// token is still rejected.
	Optional bool
}

// NewAuthMiddleware validates the access token cookie and stores the claims
// in the request context.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				if cfg.Optional {
					next.ServeHTTP(w, r)
					return
				}
				response.Error(w, apierror.Unauthorized(fmt.Sprintf("Missing cookie %q", AccessTokenCookie)))
				return
			}

			claims, err := cfg.Tokens.Validate(r.Context(), cookie.Value)
			if err != nil {
				msg := "Invalid token"
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					msg = "Token has expired"
				case errors.Is(err, service.ErrTokenRevoked):
					msg = "Token has been revoked"
				}
				response.Error(w, apierror.Unauthorized(msg))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClaimsKey, claims)))
		})
	}
}

// GetClaims retrieves the validated claims from context, or nil.
func GetClaims(ctx context.Context) *service.TokenClaims {
	if c, ok := ctx.Value(ClaimsKey).(*service.TokenClaims); ok {
		return c
	}
	return nil
}

// GetUserID returns the signed-in user's id, or "".
func GetUserID(ctx context.Context) model.ID {
	if c := GetClaims(ctx); c != nil {
		return model.ID(c.UserID)
	}
	return ""
}

// GetActor returns the signed-in caller. The zero Actor means anonymous.
func GetActor(ctx context.Context) service.Actor {
	if c := GetClaims(ctx); c != nil {
		return service.Actor{ID: model.ID(c.UserID), Role: model.Role(c.Role)}
	}
	return service.Actor{}
}
