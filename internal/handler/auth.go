package handler

import (
	"log/slog"
	"net/http"
	"time"

	"homefinder-client/internal/middleware"
	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/response"
)

// CookieConfig controls the session cookies.
type CookieConfig struct {
	CSRFName string
	Secure   bool
	TTL      time.Duration
}

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth    *service.AuthService
	cookies CookieConfig
	logger  *slog.Logger

	// ExposeResetToken returns reset tokens in the response body instead of
	// mailing them. Development only.
	ExposeResetToken bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookies.CSRFName == "" {
		cookies.CSRFName = "csrf_access_token"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, cookies: cookies, logger: logger}
}

// LoginRequest accepts either a username or an email as the login.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// setSession writes the access token and CSRF cookies.
func (h *AuthHandler) setSession(w http.ResponseWriter, sess *service.Session) {
	maxAge := int(h.cookies.TTL.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name: middleware.AccessTokenCookie, Value: sess.Token, Path: "/",
		MaxAge: maxAge, HttpOnly: true, Secure: h.cookies.Secure, SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: h.cookies.CSRFName, Value: sess.CSRF, Path: "/",
		MaxAge: maxAge, Secure: h.cookies.Secure, SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) unsetSession(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, h.cookies.CSRFName} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

// Register handles POST /api/auth/register. The new account is signed in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}
	id, err := h.auth.Register(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	if sess, err := h.auth.Login(r.Context(), model.Credentials{Email: in.Username, Password: in.Password}); err == nil {
		h.setSession(w, sess)
	} else {
		h.logger.Warn("sign-in after registration failed", slog.String("error", err.Error()))
	}
	response.Created(w, map[string]any{"message": "User registered successfully", "user_id": id})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	login := req.Email
	if login == "" {
		login = req.Username
	}
	sess, err := h.auth.Login(r.Context(), model.Credentials{Email: login, Password: req.Password})
	if err != nil {
		response.Error(w, err)
		return
	}
	h.setSession(w, sess)
	response.OK(w, map[string]any{"message": "Login successful", "user": sess.User})
}

// Logout handles POST /api/auth/logout. Cookies are cleared even when the
// session already expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		if err := h.auth.Logout(r.Context(), claims); err != nil {
			response.Error(w, err)
			return
		}
	}
	h.unsetSession(w)
	response.Message(w, http.StatusOK, "Logout successful")
}

// ResetPasswordRequest handles POST /api/auth/reset-password-request
func (h *AuthHandler) ResetPasswordRequest(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Email == "" {
		response.Error(w, apierror.BadRequest("Email is required"))
		return
	}
	token, err := h.auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		response.Error(w, err)
		return
	}

	body := map[string]string{"message": "If email exists in system, password reset email has been sent."}
	if h.ExposeResetToken && token != "" {
		body["reset_token"] = token
	}
	response.OK(w, body)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		response.Error(w, apierror.BadRequest("Token and new password are required"))
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Password has been reset successfully")
}
