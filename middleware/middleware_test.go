package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jewelbox/auth"
	"jewelbox/models"
)

const cookieName = "admin-token"

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour, time.Hour)
}

func issue(t *testing.T, tokens *auth.TokenManager, role models.AdminRole) string {
	t.Helper()
	token, err := tokens.IssueToken(&models.AdminIdentity{ID: "admin-1", Email: "owner@example.com", Role: role})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// echo reports the identity headers the handler received.
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Seen-Id", r.Header.Get(HeaderAdminID))
	w.Header().Set("X-Seen-Role", r.Header.Get(HeaderAdminRole))
	w.WriteHeader(http.StatusOK)
})

func TestAdminGate(t *testing.T) {
	tokens := newTokens()
	gate := AdminGate(tokens, cookieName)(echo)
	valid := issue(t, tokens, models.RoleManager)

	tests := []struct {
		name       string
		path       string
		cookie     string
		bearer     string
		wantStatus int
		wantLoc    string
		wantID     string
	}{
		{"public storefront", "/api/products", "", "", http.StatusOK, "", ""},
		{"login page", "/admin/login", "", "", http.StatusOK, "", ""},
		{"login api", "/api/admin/auth/login", "", "", http.StatusOK, "", ""},
		{"ui without token", "/admin/orders", "", "", http.StatusFound, LoginPath, ""},
		{"api without token", "/api/admin/products", "", "", http.StatusUnauthorized, "", ""},
		{"api with garbage", "/api/admin/products", "garbage", "", http.StatusUnauthorized, "", ""},
		{"api with cookie", "/api/admin/products", valid, "", http.StatusOK, "", "admin-1"},
		{"api with bearer", "/api/admin/products", "", valid, http.StatusOK, "", "admin-1"},
		{"ui with cookie", "/admin", valid, "", http.StatusOK, "", "admin-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookieName, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			gate.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q", rec.Header().Get("Location"))
			}
			if got := rec.Header().Get("X-Seen-Id"); got != tt.wantID {
				t.Errorf("forwarded id = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestAdminGateStripsSpoofedHeaders(t *testing.T) {
	gate := AdminGate(newTokens(), cookieName)(echo)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(HeaderAdminID, "intruder")
	req.Header.Set(HeaderAdminRole, "super_admin")
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	if rec.Header().Get("X-Seen-Id") != "" || rec.Header().Get("X-Seen-Role") != "" {
		t.Fatal("client-supplied identity headers reached the handler")
	}
}

func TestAdminGateClearsStaleCookie(t *testing.T) {
	gate := AdminGate(newTokens(), cookieName)(echo)
	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "expired"})
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("stale cookie was not cleared")
	}
}

func TestRequirePermission(t *testing.T) {
	tokens := newTokens()
	chain := func(key string) http.Handler {
		return AdminGate(tokens, cookieName)(RequirePermission(key)(echo))
	}
	manager := issue(t, tokens, models.RoleManager)

	for key, want := range map[string]int{
		auth.PermManageInventory: http.StatusOK,
		auth.PermManageBackups:   http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/anything", nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: manager})
		rec := httptest.NewRecorder()
		chain(key).ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", key, rec.Code, want)
		}
	}

	rec := httptest.NewRecorder()
	RequirePermission(auth.PermViewOrders)(echo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no identity: status = %d", rec.Code)
	}
}

func TestLoginLimiter(t *testing.T) {
	limiter := NewLoginLimiter(5, 15*time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	status := http.StatusUnauthorized
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	attempt := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= 5; i++ {
		if rec := attempt(); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
	}

	// Sixth attempt is rejected even with correct credentials.
	status = http.StatusOK
	rec := attempt()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth attempt: status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var body map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["success"] != false {
		t.Errorf("body = %v", body)
	}

	// Once the window elapses credentials are evaluated again, and success clears the counter.
	now = now.Add(15 * time.Minute)
	if rec := attempt(); rec.Code != http.StatusOK {
		t.Fatalf("after window: status = %d", rec.Code)
	}
	status = http.StatusUnauthorized
	for i := 1; i <= 5; i++ {
		if rec := attempt(); rec.Code != http.StatusUnauthorized {
			t.Fatalf("after reset, attempt %d: status = %d", i, rec.Code)
		}
	}
}

func TestLoginLimiterSweep(t *testing.T) {
	limiter := NewLoginLimiter(5, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.Allow("a")
	now = now.Add(2 * time.Minute)
	limiter.Allow("b")
	limiter.sweep()
	if _, ok := limiter.windows["a"]; ok {
		t.Error("expired window was not swept")
	}
	if _, ok := limiter.windows["b"]; !ok {
		t.Error("live window was swept")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := RealIP(nil)(rl.Middleware()(echo))
	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "198.51.100.2:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestLoginLimiterIgnoresForwardedHeader(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	limiter := NewLoginLimiter(5, 15*time.Minute)
	h := RealIP(proxies)(limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})))

	limited := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 45 {
		t.Errorf("rotating X-Forwarded-For from one peer: %d of 50 attempts limited, want 45", limited)
	}
}

func TestTrustedProxiesResolve(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	tests := []struct {
		name      string
		proxies   *TrustedProxies
		remote    string
		forwarded []string
		want      string
	}{
		{"no header", proxies, "198.51.100.1:1234", nil, "198.51.100.1"},
		{"untrusted peer header ignored", proxies, "198.51.100.1:1234", []string{"203.0.113.9"}, "198.51.100.1"},
		{"nil list trusts nobody", nil, "10.0.0.1:1234", []string{"203.0.113.9"}, "10.0.0.1"},
		{"trusted peer", proxies, "10.0.0.1:1234", []string{"203.0.113.9"}, "203.0.113.9"},
		{"right-most untrusted hop", proxies, "10.0.0.1:1234", []string{" 1.2.3.4 , 203.0.113.9, 10.1.1.1"}, "203.0.113.9"},
		{"hops across header lines", proxies, "192.0.2.10:80", []string{"1.2.3.4", "203.0.113.9"}, "203.0.113.9"},
		{"garbage hop stops the walk", proxies, "10.0.0.1:1234", []string{"203.0.113.9, not-an-ip"}, "10.0.0.1"},
		{"all hops trusted", proxies, "10.0.0.1:1234", []string{"10.2.2.2"}, "10.2.2.2"},
		{"no port", proxies, "198.51.100.1", nil, "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}
			if got := tt.proxies.Resolve(req); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ParseTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Error("expected error for an invalid range")
	}
	if _, err := ParseTrustedProxies([]string{"proxy.internal"}); err == nil {
		t.Error("expected error for a hostname")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Errorf("ClientIP without RealIP = %q", got)
	}

	proxies, _ := ParseTrustedProxies([]string{"192.0.2.1"})
	var seen string
	RealIP(proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	})).ServeHTTP(httptest.NewRecorder(), req)
	if seen != "198.51.100.9" {
		t.Errorf("ClientIP behind trusted proxy = %q", seen)
	}
}

func TestSecurityHeadersAndLogging(t *testing.T) {
	h := Logging(SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("missing %s", header)
		}
	}
}

func TestCSRF(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", CSRFToken(r))
	})
	mux.HandleFunc("POST /api/admin/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/orders/save", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("PUT /api/orders/update-status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := CSRF(key, false, nil)(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/auth/csrf", nil))
	token := rec.Header().Get("X-CSRF-Token")
	cookies := rec.Result().Cookies()
	if token == "" || len(cookies) == 0 {
		t.Fatalf("no token issued: %q %v", token, cookies)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/products", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("without token: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", nil)
	req.Header.Set("X-CSRF-Token", token)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("with token: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders/save", nil))
	if rec.Code != http.StatusCreated {
		t.Errorf("storefront route: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/orders/update-status", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status update without token: status = %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodPut, "/api/orders/update-status", nil)
	req.Header.Set("X-CSRF-Token", token)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status update with token: status = %d", rec.Code)
	}
}
