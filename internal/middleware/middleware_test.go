package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/helpers"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type tokenTable map[string]*helpers.Identity

func (tt tokenTable) Authenticate(token string) (*helpers.Identity, error) {
	if identity, ok := tt[token]; ok {
		return identity, nil
	}
	return nil, models.Unauthenticated("invalid or expired token")
}

type roleSet map[primitive.ObjectID]bool

func (rs roleSet) Authorize(_ context.Context, id primitive.ObjectID) error {
	if rs[id] {
		return nil
	}
	return models.Forbidden("forbidden: superadmin access required")
}

type scriptedLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (l *scriptedLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.retryAfter, l.err
}

type limitCounter map[string]int

func (lc limitCounter) Limited(route string) { lc[route]++ }

func decode(t *testing.T, w *httptest.ResponseRecorder) models.ApiResponse {
	t.Helper()
	var res models.ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		id, _ := c.Get(RequestIDKey)
		c.String(http.StatusOK, id.(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestAbortWithErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{models.ValidationFailed("title is required"), http.StatusBadRequest, "title is required"},
		{models.Unauthenticated("authentication required"), http.StatusUnauthorized, "authentication required"},
		{models.Forbidden("forbidden"), http.StatusForbidden, "forbidden"},
		{models.NotFound("project not found"), http.StatusNotFound, "project not found"},
		{models.Conflict("email already in use"), http.StatusConflict, "email already in use"},
		{models.Upstream("failed to update portfolio", errors.New("socket closed")), http.StatusBadGateway, "failed to update portfolio"},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/", func(c *gin.Context) { AbortWithError(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, tc.status, w.Code)
		res := decode(t, w)
		assert.False(t, res.Success)
		assert.Equal(t, tc.message, res.Error)
		assert.NotContains(t, w.Body.String(), "socket closed")
	}
}

func TestAbortWithErrorRoundsRetryAfterUp(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		AbortWithError(c, models.RateLimited("please wait before requesting another code", 1500*time.Millisecond))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, 2, decode(t, w).RetryAfter)
}

func TestErrorHandlerAnswersUnwrittenErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(discard()))
	r.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w).Error)
}

func TestAuthMiddlewareReadsCookieAndBearer(t *testing.T) {
	jane := &helpers.Identity{UserID: primitive.NewObjectID(), Username: "jane"}
	r := gin.New()
	r.Use(AuthMiddleware(tokenTable{"good": jane}, discard()))
	r.GET("/", func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, identity.Username)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenName, Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSuperadmin(t *testing.T) {
	admin := &helpers.Identity{UserID: primitive.NewObjectID(), Role: "superadmin"}
	demoted := &helpers.Identity{UserID: primitive.NewObjectID(), Role: "superadmin"}

	r := gin.New()
	r.Use(AuthMiddleware(tokenTable{"admin": admin, "demoted": demoted}, discard()))
	r.Use(RequireSuperadmin(roleSet{admin.UserID: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for token, status := range map[string]int{"admin": http.StatusNoContent, "demoted": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, token)
	}
}

func TestRateLimit(t *testing.T) {
	counter := limitCounter{}

	denied := &scriptedLimiter{retryAfter: 30 * time.Second}
	r := gin.New()
	r.POST("/auth/login", RateLimit(denied, counter, discard()), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, 1, counter["/auth/login"])
	require.Len(t, denied.keys, 1)
	assert.Equal(t, "/auth/login:192.0.2.1", denied.keys[0])

	broken := &scriptedLimiter{err: errors.New("connection refused")}
	r = gin.New()
	r.POST("/auth/login", RateLimit(broken, counter, discard()), func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, counter["/auth/login"])
}
