package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storelane/authcore/core"
	"github.com/storelane/authcore/ratelimit"
	"github.com/storelane/authcore/service"
)

const contextClaimsKey = "sessionClaims"

// RequireSession resolves the session from the token cookies. An
// expired or missing access token triggers a transparent refresh
// attempt; only when that fails too does the request come back
// unauthenticated. A refreshed access token is re-committed as a
// cookie on the way out.
func RequireSession(sessions *service.SessionService, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := cookieValue(c, AccessCookieName)
		refreshToken := cookieValue(c, RefreshCookieName)

		claims, newAccess, err := sessions.Resolve(c.Request.Context(), accessToken, refreshToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		if newAccess != "" {
			cookies.setTokenCookie(c, AccessCookieName, newAccess, claims)
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the session claims the middleware stored.
func ClaimsFromContext(c *gin.Context) (*core.Claims, bool) {
	value, ok := c.Get(contextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*core.Claims)
	return claims, ok
}

// RateLimit throttles by client address using the provided limiter.
// Denials are logged and answered with 429 plus retry timing.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		decision := limiter.Allow(c.ClientIP())
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(time.Now())
			logger.Warn("request throttled",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Duration("retry_after", retryAfter),
			)
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}

// RequestLogger logs each request with latency and request id
// metadata. Secrets never appear here: cookies and bodies are not
// logged.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.Request.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("http_request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}
