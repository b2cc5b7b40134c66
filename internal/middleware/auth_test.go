package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"moneta/internal/models"
)

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/test", func(c *gin.Context) {
		userID := c.GetString("userID")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{
		Base:  models.Base{ID: "0193e5c2-7b7a-7c9d-a1f0-3a9b1c2d4e5f"},
		Email: "test@example.com",
	}

	t.Run("accepts a valid access token", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("failed to generate access token: %v", err)
		}
		r := setupAuthRouter()

		rec := doAuthRequest(r, "Bearer "+token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects a refresh token used as an access token", func(t *testing.T) {
		token, err := GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to generate refresh token: %v", err)
		}
		r := setupAuthRouter()

		rec := doAuthRequest(r, "Bearer "+token)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		r := setupAuthRouter()

		rec := doAuthRequest(r, "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		r := setupAuthRouter()

		rec := doAuthRequest(r, "Token abc")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		r := setupAuthRouter()

		rec := doAuthRequest(r, "Bearer not-a-jwt")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("sets the user ID in the context", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("failed to generate access token: %v", err)
		}
		r := setupAuthRouter()

		rec := doAuthRequest(r, "Bearer "+token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if want := `"user_id":"` + user.ID + `"`; !strings.Contains(rec.Body.String(), want) {
			t.Errorf("expected body to carry %s, got %s", want, rec.Body.String())
		}
	})
}
