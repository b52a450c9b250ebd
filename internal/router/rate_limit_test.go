package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimitMiddlewarePassesThroughWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rule := RateLimitRule{Prefix: "t:rate", WindowSeconds: 60, MaxRequests: 1}
	r.POST("/verify", RateLimitMiddleware(nil, rule, KeyByIP), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// redis 未配置时限流退化为放行，连续请求也不应被拒绝
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/verify", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d want 200 got %d", i, w.Code)
		}
	}
}

func TestKeyByIPAndJSONFieldReadsBodyWithoutConsuming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFunc := KeyByIPAndJSONField("email")

	var key string
	var echoed string
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		key = keyFunc(c)
		var payload struct {
			Email string `json:"email"`
		}
		// key 函数读取过 body 后，绑定仍然要能拿到完整内容
		if err := c.ShouldBindJSON(&payload); err != nil {
			t.Errorf("bind after key func failed: %v", err)
		}
		echoed = payload.Email
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"email":"User@Example.COM"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if !strings.HasPrefix(key, "user@example.com|") {
		t.Fatalf("key want lowered email prefix got %q", key)
	}
	if echoed != "User@Example.COM" {
		t.Fatalf("body should survive key extraction, got %q", echoed)
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFunc := KeyByIPAndJSONField("email")

	var key string
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		key = keyFunc(c)
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`not-json`))
	r.ServeHTTP(w, req)

	if key == "" || strings.Contains(key, "|") {
		t.Fatalf("malformed body should fall back to plain IP key, got %q", key)
	}
}
