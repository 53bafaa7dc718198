package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func performRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminRouter() *gin.Engine {
	r := gin.New()
	r.GET("/admin", AuthMiddleware(testSecret), RequireAnyRole("admin", "manager"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := adminRouter()

	t.Run("missing token", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/admin", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_TOKEN")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Token abc"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN_FORMAT")
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, Claims{UserID: "u1", Roles: []string{"admin"}}, "other")
		w := performRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("expired token", func(t *testing.T) {
		claims := Claims{UserID: "u1", Roles: []string{"admin"}}
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		w := performRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + signToken(t, claims, testSecret)})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("customer role is forbidden", func(t *testing.T) {
		token := signToken(t, Claims{UserID: "u1", Roles: []string{"customer"}}, testSecret)
		w := performRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
	})

	t.Run("manager passes", func(t *testing.T) {
		token := signToken(t, Claims{UserID: "u1", Roles: []string{"manager"}}, testSecret)
		w := performRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "u1")
	})
}

func TestRequireAccessToken(t *testing.T) {
	r := gin.New()
	r.POST("/reviews", RequireAccessToken(testSecret), func(c *gin.Context) {
		c.String(http.StatusCreated, GetUserID(c))
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		token := signToken(t, Claims{UserID: "u1", TokenType: "refresh"}, testSecret)
		w := performRequest(r, http.MethodPost, "/reviews", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN_TYPE")
	})

	t.Run("token without user rejected", func(t *testing.T) {
		token := signToken(t, Claims{TokenType: "access"}, testSecret)
		w := performRequest(r, http.MethodPost, "/reviews", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token accepted", func(t *testing.T) {
		token := signToken(t, Claims{UserID: "customer-7", TokenType: "access"}, testSecret)
		w := performRequest(r, http.MethodPost, "/reviews", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "customer-7", w.Body.String())
	})
}

func TestDevelopmentAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/admin", DevelopmentAuthMiddleware(testSecret), RequireAnyRole("admin"), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	w := performRequest(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, devUserID, w.Body.String())

	w = performRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer broken"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLanguage(t *testing.T) {
	r := gin.New()
	r.Use(Language("ru", []string{"ru", "en", "kz"}))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetLanguage(c))
	})

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    string
	}{
		{"default", "/", nil, "RU"},
		{"query param", "/?lang=en", nil, "EN"},
		{"kz query param", "/?lang=kz", nil, "KZ"},
		{"query wins over header", "/?lang=en", map[string]string{"Accept-Language": "kk"}, "EN"},
		{"accept language kazakh", "/", map[string]string{"Accept-Language": "kk-KZ,ru;q=0.8"}, "KZ"},
		{"accept language english region", "/", map[string]string{"Accept-Language": "en-US,en;q=0.9"}, "EN"},
		{"unsupported query falls back", "/?lang=de", nil, "RU"},
		{"unsupported header falls back", "/", map[string]string{"Accept-Language": "de-DE"}, "RU"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, http.MethodGet, tt.path, tt.headers)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestTranslationTargets(t *testing.T) {
	assert.Equal(t, []string{"EN", "KZ"}, TranslationTargets("ru", []string{"ru", "en", "kz"}))
	assert.Equal(t, []string{"RU"}, TranslationTargets("en", []string{"EN", "ru", "xx", "ru"}))
	assert.Empty(t, TranslationTargets("ru", []string{"ru"}))
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := gin.New()
	r.GET("/search", RateLimit(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/search", nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/search", nil).Code)
	w := performRequest(r, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per client")
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type payload struct {
		Color string `json:"color" binding:"required,hexcolor6"`
		Slug  string `json:"slug" binding:"required,slug"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(`{"color":"#FF00aa","slug":"red-sofa-2"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"color":"#FFF","slug":"red-sofa"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"color":"#FF0000","slug":"Red Sofa"}`))
}
