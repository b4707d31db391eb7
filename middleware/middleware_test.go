package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"outlandish/models"
	"outlandish/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testSecret = "session-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, u models.SessionUser) string {
	t.Helper()
	s, err := utils.GenerateSessionToken(u, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	return s
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.ID)
	})
	r.GET("/check", handlers...)
	return r
}

func TestSessionAuthMiddleware(t *testing.T) {
	engine := newEngine(SessionAuthMiddleware(testSecret, "sess"))
	valid := token(t, models.SessionUser{ID: "user-1", Email: "a@b.c"})
	foreign, err := utils.GenerateSessionToken(models.SessionUser{ID: "user-1"}, "other-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sess", Value: valid}) }, http.StatusOK, "user-1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, "user-1"},
		{"wrong secret", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+foreign) }, http.StatusUnauthorized, ""},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/check", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		mw     gin.HandlerFunc
		user   models.SessionUser
		status int
	}{
		{"admin allowed", RequireAdmin(), models.SessionUser{ID: "a", IsAdmin: true}, http.StatusOK},
		{"customer refused admin", RequireAdmin(), models.SessionUser{ID: "c"}, http.StatusForbidden},
		{"guide allowed", RequireGuide(), models.SessionUser{ID: "g", IsGuide: true}, http.StatusOK},
		{"admin allowed as guide", RequireGuide(), models.SessionUser{ID: "a", IsAdmin: true}, http.StatusOK},
		{"customer refused guide", RequireGuide(), models.SessionUser{ID: "c"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(SessionAuthMiddleware(testSecret, ""), tt.mw)
			req := httptest.NewRequest(http.MethodGet, "/check", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, tt.user))
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestRequireAdminWithoutSession(t *testing.T) {
	engine := newEngine(RequireAdmin())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/check", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		t.Fatal(err)
	}
	r.Use(RateLimitMiddleware(2, zap.NewNop(), "/exempt"))
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/exempt", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path, peer string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = peer + ":40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("/limited", "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
	if code := do("/limited", "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", code)
	}
	if code := do("/limited", "198.51.100.2"); code != http.StatusOK {
		t.Fatalf("other ip: status = %d", code)
	}
	for i := 0; i < 5; i++ {
		if code := do("/exempt", "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("exempt path: status = %d", code)
		}
	}
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		t.Fatal(err)
	}
	r.Use(RateLimitMiddleware(2, zap.NewNop()))
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/250, i%250))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed = %d, want 2", allowed)
	}
}

func TestRateLimitHonoursTrustedProxy(t *testing.T) {
	r := gin.New()
	if err := r.SetTrustedProxies([]string{"10.0.0.1"}); err != nil {
		t.Fatal(err)
	}
	r.Use(RateLimitMiddleware(1, zap.NewNop()))
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	if do("198.51.100.1") != http.StatusOK || do("198.51.100.2") != http.StatusOK {
		t.Fatal("distinct clients behind the proxy should each get a limiter")
	}
	if code := do("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client: status = %d, want 429", code)
	}
}

func TestRateLimiterStoreEvictsIdleVisitors(t *testing.T) {
	store := newRateLimiterStore(10)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.getLimiter("203.0.113.1")
	store.getLimiter("203.0.113.2")
	if store.size() != 2 {
		t.Fatalf("size = %d, want 2", store.size())
	}

	now = now.Add(limiterIdleTTL / 2)
	store.getLimiter("203.0.113.2")

	now = now.Add(limiterIdleTTL/2 + time.Minute)
	store.getLimiter("203.0.113.3")
	if store.size() != 2 {
		t.Fatalf("size after sweep = %d, want 2", store.size())
	}
	store.mu.Lock()
	_, stale := store.visitors["203.0.113.1"]
	store.mu.Unlock()
	if stale {
		t.Fatal("idle visitor was not evicted")
	}
}
