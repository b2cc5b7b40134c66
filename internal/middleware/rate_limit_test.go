package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRateLimitRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(rl))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doLimitedRequest(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to the burst size", func(t *testing.T) {
		rl := NewRateLimiter(60, 3)
		defer rl.Stop()

		for i := 0; i < 3; i++ {
			if !rl.Allow("client-1") {
				t.Fatalf("request %d should be allowed within the burst", i+1)
			}
		}
		if rl.Allow("client-1") {
			t.Error("request beyond the burst should be denied")
		}
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		rl := NewRateLimiter(60, 1)
		defer rl.Stop()

		if !rl.Allow("client-a") {
			t.Fatal("first request for client-a should be allowed")
		}
		if rl.Allow("client-a") {
			t.Error("second request for client-a should be denied")
		}
		if !rl.Allow("client-b") {
			t.Error("client-b should have its own bucket")
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("returns 429 once the burst is exhausted", func(t *testing.T) {
		rl := NewRateLimiter(60, 2)
		defer rl.Stop()
		r := setupRateLimitRouter(rl)

		for i := 0; i < 2; i++ {
			rec := doLimitedRequest(r, "10.0.0.1:1234")
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
			}
		}

		rec := doLimitedRequest(r, "10.0.0.1:1234")
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		var result map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse response body: %v", err)
		}
		errObj, ok := result["error"].(map[string]interface{})
		if !ok {
			t.Fatal("expected error object in response")
		}
		if errObj["code"] != "RATE_LIMITED" {
			t.Errorf("expected RATE_LIMITED, got %v", errObj["code"])
		}
	})

	t.Run("keys by IP when unauthenticated", func(t *testing.T) {
		rl := NewRateLimiter(60, 1)
		defer rl.Stop()
		r := setupRateLimitRouter(rl)

		if rec := doLimitedRequest(r, "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for first client, got %d", rec.Code)
		}
		if rec := doLimitedRequest(r, "10.0.0.1:1234"); rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 for first client's second request, got %d", rec.Code)
		}
		if rec := doLimitedRequest(r, "10.0.0.2:1234"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for a different client, got %d", rec.Code)
		}
	})

	t.Run("keys by user ID when authenticated", func(t *testing.T) {
		rl := NewRateLimiter(60, 1)
		defer rl.Stop()
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("userID", "user-1")
			c.Next()
		})
		r.Use(RateLimit(rl))
		r.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Same user from different IPs shares one bucket.
		if rec := doLimitedRequest(r, "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec := doLimitedRequest(r, "10.0.0.2:1234"); rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 for the same user from another IP, got %d", rec.Code)
		}
	})
}
