package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"jewelbox/auth"
	"jewelbox/middleware"
	"jewelbox/models"
)

// CookieSettings controls the session cookie written at login.
type CookieSettings struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authenticator *auth.Authenticator
	tokens        *auth.TokenManager
	cookie        CookieSettings
}

func NewAuthHandler(authenticator *auth.Authenticator, tokens *auth.TokenManager, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		tokens:        tokens,
		cookie:        cookie,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool                  `json:"success"`
	Token   string                `json:"token"`
	User    *models.AdminIdentity `json:"user"`
}

// Login checks the admin credentials and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	identity, err := h.authenticator.Authenticate(req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err)
		}
		slog.Warn("invalid admin login", "email", req.Email, "ip", middleware.ClientIP(r))
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.IssueToken(identity)
	if err != nil {
		slog.Error("failed to issue token", "email", identity.Email, "error", err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.Expiration().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("admin logged in", "email", identity.Email, "role", identity.Role)

	writeJSON(w, http.StatusOK, LoginResponse{Success: true, Token: token, User: identity})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
}

// Verify returns the identity the gate attached to the request
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": identity})
}

// CSRF hands out the token admin clients send back in the X-CSRF-Token header
func (h *AuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	token := middleware.CSRFToken(r)
	w.Header().Set("X-CSRF-Token", token)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "csrfToken": token})
}
