package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photofeed/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWTAuthenticator(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, "photofeed")
	ctx := context.Background()

	token, err := IssueToken(testSecret, "photofeed", 42, time.Hour)
	require.NoError(t, err)
	userID, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.UserID(42), userID)

	expired, err := IssueToken(testSecret, "photofeed", 42, -time.Minute)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, expired)
	assert.Error(t, err)

	foreign, err := IssueToken("other-secret", "photofeed", 42, time.Hour)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := IssueToken(testSecret, "someone-else", 42, time.Hour)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "photofeed",
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := badSubject.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/me", func(c *gin.Context) {
		userID, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(AuthMiddleware(NewJWTAuthenticator(testSecret, "photofeed")))
	token, err := IssueToken(testSecret, "photofeed", 7, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	router := newTestRouter(AuthMiddleware(NewJWTAuthenticator(testSecret, "photofeed")), limiter.Handler())

	tokenA, err := IssueToken(testSecret, "photofeed", 1, time.Hour)
	require.NoError(t, err)
	tokenB, err := IssueToken(testSecret, "photofeed", 2, time.Hour)
	require.NoError(t, err)

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(tokenA))
	assert.Equal(t, http.StatusOK, call(tokenA))
	assert.Equal(t, http.StatusTooManyRequests, call(tokenA))
	// у другого пользователя свой бакет
	assert.Equal(t, http.StatusOK, call(tokenB))
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 10)
	now := time.Now()
	limiter.allow("old", now.Add(-time.Hour))
	limiter.allow("fresh", now)

	assert.Equal(t, 1, limiter.Cleanup(now))
	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "fresh")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(PrometheusMiddleware("test"))
	router.GET("/metrics", MetricsHandler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))
	RecordFeedBuild(10*time.Millisecond, 3, "")
	RecordFeedBuild(time.Millisecond, 0, "validation")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), "feed_build_duration_seconds")
	assert.Contains(t, w.Body.String(), `feed_errors_total{error_type="validation"}`)
}
