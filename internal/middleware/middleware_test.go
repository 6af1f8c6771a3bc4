package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	require.NoError(t, err)
	return token
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "email": c.GetString("email")})
	})
	r.GET("/optional", OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func get(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter()

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "").Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "Basic abc").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "Bearer not.a.jwt").Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "Bearer "+token).Code)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "Bearer "+token).Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":   "u1",
			"email": "ada@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		w := get(r, "/protected", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
		assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)
	})
}

func TestOptionalAuth(t *testing.T) {
	r := authRouter()

	w := get(r, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = get(r, "/optional", "Bearer garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	token := signToken(t, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w = get(r, "/optional", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(rate.Limit(1), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/", "").Code)
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(rate.Limit(1), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	getFrom := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Each client IP gets its own limiter; exhausting one leaves the
	// other's burst intact.
	assert.Equal(t, http.StatusOK, getFrom("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, getFrom("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, getFrom("10.0.0.2:1234"))
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
