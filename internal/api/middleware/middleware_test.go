package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gestion-cours/backend/config"
	"gestion-cours/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── stubs ──

type stubRevocation struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocation) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

type stubLimiter struct {
	calls int
	err   error
}

func (s *stubLimiter) CheckRateLimit(_ context.Context, _ string, limit int, _ time.Duration) (bool, int, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.calls++
	remaining := limit - s.calls
	if remaining < 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-at-least-16",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// ═══════════════════════════════════════════════════════════
// JWTAuth
// ═══════════════════════════════════════════════════════════

func TestJWTAuth_MissingHeader(t *testing.T) {
	r := gin.New()
	r.GET("/p", JWTAuth(newTestJWT(), nil), noContent)

	if w := serve(r, http.MethodGet, "/p", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	mgr := newTestJWT()
	refresh, _ := mgr.GenerateRefreshToken(jwt.Subject{UserID: "u1", Role: "admin"})

	r := gin.New()
	r.GET("/p", JWTAuth(mgr, nil), noContent)

	if w := serve(r, http.MethodGet, "/p", refresh); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for refresh token, got %d", w.Code)
	}
}

func TestJWTAuth_Blacklist(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken(jwt.Subject{UserID: "u1", Role: "admin"})
	claims, _ := mgr.ParseToken(token)

	t.Run("revoked", func(t *testing.T) {
		r := gin.New()
		r.GET("/p", JWTAuth(mgr, &stubRevocation{revoked: map[string]bool{claims.ID: true}}), noContent)
		if w := serve(r, http.MethodGet, "/p", token); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("redis down degrades", func(t *testing.T) {
		r := gin.New()
		r.GET("/p", JWTAuth(mgr, &stubRevocation{err: errors.New("connection refused")}), noContent)
		if w := serve(r, http.MethodGet, "/p", token); w.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", w.Code)
		}
	})

	t.Run("context populated", func(t *testing.T) {
		r := gin.New()
		r.GET("/p", JWTAuth(mgr, &stubRevocation{}), func(c *gin.Context) {
			if c.GetString(CtxUserID) != "u1" || c.GetString(CtxRole) != "admin" {
				t.Errorf("unexpected context: %v %v", c.GetString(CtxUserID), c.GetString(CtxRole))
			}
			c.Status(http.StatusNoContent)
		})
		if w := serve(r, http.MethodGet, "/p", token); w.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", w.Code)
		}
	})
}

// ═══════════════════════════════════════════════════════════
// RoleAuth / PermissionAuth
// ═══════════════════════════════════════════════════════════

func withClaims(claims *jwt.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

func TestRoleAuth(t *testing.T) {
	cases := []struct {
		name   string
		claims *jwt.Claims
		want   int
	}{
		{"allowed role", &jwt.Claims{Role: "instructor"}, http.StatusNoContent},
		{"other role", &jwt.Claims{Role: "student"}, http.StatusForbidden},
		{"superuser bypass", &jwt.Claims{Role: "student", Superuser: true}, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/p", withClaims(tc.claims), RoleAuth("admin", "instructor"), noContent)
			if w := serve(r, http.MethodGet, "/p", ""); w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}

	t.Run("no claims", func(t *testing.T) {
		r := gin.New()
		r.GET("/p", RoleAuth("admin"), noContent)
		if w := serve(r, http.MethodGet, "/p", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestPermissionAuth(t *testing.T) {
	r := gin.New()
	r.GET("/granted", withClaims(&jwt.Claims{Permissions: []string{"can_publish_course"}}), PermissionAuth("can_publish_course"), noContent)
	r.GET("/missing", withClaims(&jwt.Claims{Permissions: []string{"can_view_statistics"}}), PermissionAuth("can_publish_course"), noContent)

	if w := serve(r, http.MethodGet, "/granted", ""); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/missing", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "can_publish_course") {
		t.Errorf("expected missing codename in message: %s", w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit
// ═══════════════════════════════════════════════════════════

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := &stubLimiter{}
	r := gin.New()
	r.POST("/enroll", RateLimit(limiter, 2, time.Minute, zap.NewNop()), noContent)

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodPost, "/enroll", ""); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i+1, w.Code)
		}
	}

	w := serve(r, http.MethodPost, "/enroll", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("expected Retry-After 60, got %q", w.Header().Get("Retry-After"))
	}
	if w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("expected X-RateLimit-Limit 2, got %q", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.POST("/nil", RateLimit(nil, 5, time.Minute, zap.NewNop()), noContent)
	limiter := &stubLimiter{}
	r.POST("/zero", RateLimit(limiter, 0, time.Minute, zap.NewNop()), noContent)

	if w := serve(r, http.MethodPost, "/nil", ""); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/zero", ""); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if limiter.calls != 0 {
		t.Errorf("limiter should not be consulted when limit is 0")
	}
}

func TestRateLimit_RedisErrorDegrades(t *testing.T) {
	r := gin.New()
	r.POST("/enroll", RateLimit(&stubLimiter{err: errors.New("timeout")}, 1, time.Minute, zap.NewNop()), noContent)

	if w := serve(r, http.MethodPost, "/enroll", ""); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RequestID / BodyLimit
// ═══════════════════════════════════════════════════════════

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/p", RequestID(), func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	cases := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid passthrough", "abc-123_x.y", true},
		{"empty", "", false},
		{"illegal chars", "abc<script>", false},
		{"too long", strings.Repeat("a", requestIDMaxLen+1), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set(requestIDHeader, tc.header)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got != w.Body.String() {
				t.Errorf("header %q and context %q differ", got, w.Body.String())
			}
			if tc.keep && got != tc.header {
				t.Errorf("expected %q to be kept, got %q", tc.header, got)
			}
			if !tc.keep && (got == tc.header || len(got) != 36) {
				t.Errorf("expected generated UUID, got %q", got)
			}
		})
	}
}

func TestBodyLimit_RejectsDeclaredLength(t *testing.T) {
	r := gin.New()
	r.POST("/p", BodyLimit(8), noContent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", strings.NewReader(strings.Repeat("x", 32))))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CORS / Logger
// ═══════════════════════════════════════════════════════════

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.POST("/enrollments", noContent)

	preflight := func(origin string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/enrollments", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight("http://localhost:5173")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected allow origin %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected allow methods on preflight")
	}

	w = preflight("https://evil.example")
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin must not be echoed")
	}
}

func TestLogger_RouteTemplateAndHealthSkip(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/health", noContent)
	r.GET("/courses/:id", noContent)

	serve(r, http.MethodGet, "/health", "")
	serve(r, http.MethodGet, "/courses/abc", "")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if route := entries[0].ContextMap()["route"]; route != "/courses/:id" {
		t.Errorf("expected route template, got %v", route)
	}
}
