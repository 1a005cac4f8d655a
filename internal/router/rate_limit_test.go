package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newJSONContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/guest/orders", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "10.0.0.7:5678"
	return c
}

func TestKeyByIPAndJSONFieldRestoresBody(t *testing.T) {
	c := newJSONContext(`{"customer_phone":" 0888 123 456 ","items":[{"product_id":1,"quantity":2}]}`)

	key := KeyByIPAndJSONField("customer_phone")(c)
	if key != "0888 123 456|10.0.0.7" {
		t.Fatalf("unexpected key %q", key)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), `"product_id":1`) {
		t.Fatalf("request body should be restored, got %s", body)
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	cases := map[string]string{
		"missing field": `{"customer_name":"Иван"}`,
		"non string":    `{"customer_phone":359888123456}`,
		"invalid json":  `{"customer_phone":`,
		"empty body":    ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if key := KeyByIPAndJSONField("customer_phone")(newJSONContext(body)); key != "10.0.0.7" {
				t.Fatalf("want ip fallback, got %q", key)
			}
		})
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status want 200 got %d", i, w.Code)
		}
	}
}

func TestRateLimitRuleHelpers(t *testing.T) {
	rule := RateLimitRule{Prefix: "vs:rate:checkout", WindowSeconds: 60, MaxRequests: 10}
	if !rule.active() || (RateLimitRule{WindowSeconds: 60}).active() {
		t.Fatalf("unexpected active state")
	}
	if got := rule.key("10.0.0.7"); got != "vs:rate:checkout:10.0.0.7" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := rule.rejectMessage(42); got != "too many requests, retry in 42 seconds" {
		t.Fatalf("unexpected default message %q", got)
	}
	rule.Message = "too many orders, retry in %d seconds"
	if got := rule.rejectMessage(5); got != "too many orders, retry in 5 seconds" {
		t.Fatalf("unexpected custom message %q", got)
	}
}
