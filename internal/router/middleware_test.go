package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vitrina-shop/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestCORSPolicyAllowOrigin(t *testing.T) {
	if got := newCORSPolicy(config.CORSConfig{AllowedOrigins: []string{"*"}}).allowOrigin("https://shop.bg"); got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}
	if got := newCORSPolicy(config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}).allowOrigin("https://shop.bg"); got != "https://shop.bg" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}
	listed := newCORSPolicy(config.CORSConfig{AllowedOrigins: []string{"https://shop.bg", "https://admin.shop.bg"}})
	if got := listed.allowOrigin("https://ADMIN.shop.bg"); got != "https://ADMIN.shop.bg" {
		t.Fatalf("allow-list should match case-insensitively, got %s", got)
	}
	if got := listed.allowOrigin("https://evil.example"); got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
	if got := listed.allowOrigin(""); got != "" {
		t.Fatalf("missing origin should be empty, got %s", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.bg"}, MaxAge: 600}))
	r.POST("/api/v1/guest/orders", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/guest/orders", nil)
	req.Header.Set("Origin", "https://shop.bg")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("max age header missing")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Retry-After") {
		t.Fatalf("Retry-After should be exposed, got %q", w.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req3.Header.Set(requestIDHeader, "bad id with spaces")
	r.ServeHTTP(w3, req3)
	if got := w3.Header().Get(requestIDHeader); got == "bad id with spaces" || got == "" {
		t.Fatalf("invalid inbound request id should be replaced, got %q", got)
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware(""))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status want 401 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func signAdminToken(t *testing.T, secret string, method jwt.SigningMethod, claims AdminClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func newAdminPingRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(secret))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(adminSubjectKey)})
	})
	return r
}

func TestJWTAuthMiddlewareAcceptsValidToken(t *testing.T) {
	r := newAdminPingRouter("secret-1")
	token := signAdminToken(t, "secret-1", jwt.SigningMethodHS256, AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops@vitrina.bg",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ops@vitrina.bg") {
		t.Fatalf("subject should be exposed to handlers, got %s", w.Body.String())
	}
}

func TestJWTAuthMiddlewareRejectsBadTokens(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	cases := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: signAdminToken(t, "other", jwt.SigningMethodHS256, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: future},
		})},
		{name: "expired", token: signAdminToken(t, "secret-1", jwt.SigningMethodHS256, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		})},
		{name: "no expiry", token: signAdminToken(t, "secret-1", jwt.SigningMethodHS256, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops"},
		})},
		{name: "no subject", token: signAdminToken(t, "secret-1", jwt.SigningMethodHS256, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		})},
		{name: "hs512", token: signAdminToken(t, "secret-1", jwt.SigningMethodHS512, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: future},
		})},
	}
	r := newAdminPingRouter("secret-1")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status want 401 got %d", w.Code)
			}
		})
	}
}
