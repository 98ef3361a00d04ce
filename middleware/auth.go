package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"jewelbox/auth"
	"jewelbox/models"
)

type contextKey string

const identityContextKey contextKey = "admin"

// Headers carrying the verified identity to downstream handlers. Client-supplied copies are
// always removed before the gate forwards a request.
const (
	HeaderAdminID    = "x-admin-id"
	HeaderAdminEmail = "x-admin-email"
	HeaderAdminRole  = "x-admin-role"
)

// LoginPath is where unauthenticated admin UI requests are sent.
const LoginPath = "/admin/login"

// protectedPaths are outside the admin prefixes but still require a session.
var protectedPaths = map[string]bool{
	"/api/orders/update-status": true,
}

var publicAdminPaths = map[string]bool{
	LoginPath:                true,
	"/api/admin/auth/login":  true,
	"/api/admin/auth/logout": true,
	"/api/admin/auth/csrf":   true,
}

// AdminGate verifies the session token for every admin UI and admin API path, plus the storefront
// order-status endpoint. It is the only place tokens are checked; handlers read the identity from
// the request context.
func AdminGate(tokens *auth.TokenManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(HeaderAdminID)
			r.Header.Del(HeaderAdminEmail)
			r.Header.Del(HeaderAdminRole)

			path := strings.TrimSuffix(r.URL.Path, "/")
			if !isProtected(path) || publicAdminPaths[path] {
				next.ServeHTTP(w, r)
				return
			}

			token := tokenFromRequest(r, cookieName)
			identity, err := tokens.Identify(token)
			if err != nil {
				if token != "" {
					slog.Debug("rejected admin session", "path", r.URL.Path, "error", err)
				}
				deny(w, r, cookieName, token != "")
				return
			}

			r.Header.Set(HeaderAdminID, identity.ID)
			r.Header.Set(HeaderAdminEmail, identity.Email)
			r.Header.Set(HeaderAdminRole, string(identity.Role))
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func isProtected(path string) bool {
	return protectedPaths[path] || path == "/admin" || strings.HasPrefix(path, "/admin/") ||
		path == "/api/admin" || strings.HasPrefix(path, "/api/admin/")
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// tokenFromRequest prefers the session cookie and falls back to a bearer token.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func deny(w http.ResponseWriter, r *http.Request, cookieName string, stale bool) {
	if stale {
		http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	if isAPIPath(r.URL.Path) {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// WithIdentity stores the verified admin identity in ctx.
func WithIdentity(ctx context.Context, identity *models.AdminIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the admin identity placed by AdminGate.
func IdentityFromContext(ctx context.Context) (*models.AdminIdentity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*models.AdminIdentity)
	return identity, ok && identity != nil
}

// RequirePermission rejects requests whose identity lacks the permission key.
func RequirePermission(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !auth.HasPermission(identity, key) {
				slog.Warn("permission denied", "admin", identity.Email, "permission", key, "path", r.URL.Path)
				writeError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
