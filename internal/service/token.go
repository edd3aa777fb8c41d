package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"homefinder-client/internal/cache"
	"homefinder-client/pkg/uid"
)

const (
	// DefaultTokenTTL is the default session lifetime.
	DefaultTokenTTL = 1 * time.Hour

	// revokedKeyPrefix is the cache key prefix for logged-out token IDs.
	revokedKeyPrefix = "token:revoked:"
)

// ErrTokenRevoked is returned for tokens that were logged out.
var ErrTokenRevoked = errors.New("token has been revoked")

// TokenClaims identify the signed-in user. CSRF is the double-submit value
// bound to the session.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	CSRF   string `json:"csrf"`
	jwt.RegisteredClaims
}

// TokenService signs, validates and revokes HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	cache  cache.Cache
}

// NewTokenService creates a token service. Revocations are kept in c.
func NewTokenService(secret string, ttl time.Duration, c cache.Cache) *TokenService {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, cache: c}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for userID and returns it with its CSRF value.
func (s *TokenService) Issue(userID, role string) (token, csrf string, err error) {
	if userID == "" {
		return "", "", errors.New("user id required")
	}
	now := time.Now()
	csrf = uid.Token()
	claims := TokenClaims{
		UserID: userID,
		Role:   role,
		CSRF:   csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uid.New(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return token, csrf, nil
}

// Validate checks the signature, expiry and revocation of tokenString.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if s.cache != nil && claims.ID != "" {
		revoked, err := s.cache.Exists(ctx, revokedKeyPrefix+claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke rejects the token for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, claims *TokenClaims) error {
	if s.cache == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedKeyPrefix+claims.ID, []byte("1"), ttl)
}
