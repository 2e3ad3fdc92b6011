package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/folio/internal/helpers"
	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestIDKey    = "request_id"
	IdentityKey     = "user"
	AccessTokenName = "access_token"
)

// Authenticator resolves a session token to the caller.
type Authenticator interface {
	Authenticate(token string) (*helpers.Identity, error)
}

// RoleChecker re-checks the stored role of the caller.
type RoleChecker interface {
	Authorize(ctx context.Context, callerID primitive.ObjectID) error
}

// RateLimiter is satisfied by ratelimit.Limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type LimitRecorder interface {
	Limited(route string)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger logs one line per request. Bodies are never logged.
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		requestID, _ := c.Get(RequestIDKey)
		attrs := []any{
			slog.Any("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP Request", attrs...)
			return
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs the errors attached to the context and answers with a
// generic 500 when no handler wrote a response.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		requestID, _ := c.Get(RequestIDKey)
		for _, err := range c.Errors {
			logger.Error("Request error",
				slog.Any("request_id", requestID),
				slog.String("error", err.Error()),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			)
		}
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("internal server error"))
		}
	}
}

// AbortWithError writes err in the response envelope with the status of its
// kind. Infrastructure errors are attached to the context for ErrorHandler.
func AbortWithError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	status := models.StatusFor(kind)
	if kind == models.KindUpstreamFailure {
		_ = c.Error(err)
	}
	if kind == models.KindRateLimited {
		seconds := int(math.Ceil(models.RetryAfterOf(err).Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(status, models.RetryResponse(models.PublicMessage(err), seconds))
		return
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse(models.PublicMessage(err)))
}

func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// AuthMiddleware resolves the session from the access_token cookie or a
// bearer header and stores the identity under IdentityKey.
func AuthMiddleware(auth Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Authenticate(tokenFromRequest(c))
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("path", c.Request.URL.Path),
				slog.Any("error", err),
			)
			AbortWithError(c, err)
			return
		}
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the caller set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (*helpers.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*helpers.Identity)
	return identity, ok && identity != nil
}

// RequireSuperadmin must run after AuthMiddleware.
func RequireSuperadmin(roles RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			AbortWithError(c, models.Unauthenticated("authentication required"))
			return
		}
		if err := roles.Authorize(c.Request.Context(), identity.UserID); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RateLimit spends one unit of the client's budget for the matched route.
// When the limiter backend fails the request is let through.
func RateLimit(limiter RateLimiter, recorder LimitRecorder, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), route+":"+c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", slog.Any("error", err))
			c.Next()
			return
		}
		if !allowed {
			if recorder != nil {
				recorder.Limited(route)
			}
			AbortWithError(c, models.RateLimited("too many requests, please try again later", retryAfter))
			return
		}
		c.Next()
	}
}
