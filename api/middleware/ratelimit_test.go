package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRateLimitedRouter(t *testing.T, rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	limiter := NewIPRateLimiter(rps, burst, time.Minute)
	t.Cleanup(limiter.StopCleanup)

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestIPRateLimiter_BurstThenReject(t *testing.T) {
	router := setupRateLimitedRouter(t, 0.001, 2)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1"))
}

func TestIPRateLimiter_PerClientBuckets(t *testing.T) {
	router := setupRateLimitedRouter(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1"))

	// 其他 IP 有独立的令牌桶
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.2"))
}

func TestClientIP_ForwardedForChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", clientIP(c))
}
