package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storelane/authcore/csrf"
	"github.com/storelane/authcore/ratelimit"
	"github.com/storelane/authcore/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(
	handlers *SessionHandlers,
	sessions *service.SessionService,
	guard *csrf.Guard,
	apiLimiter *ratelimit.Limiter,
	cookies CookieConfig,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), RateLimit(apiLimiter, logger))

	// Login carries no session yet, so it sits outside the CSRF
	// guard; its abuse protection is the login limiter inside the
	// service.
	auth := router.Group("/auth")
	{
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", guard.Middleware(), handlers.Refresh)
		auth.POST("/logout", guard.Middleware(), handlers.Logout)
	}

	// Protected surface: origin and CSRF checks run before the
	// session is resolved, so a forged request never reaches token
	// verification.
	session := router.Group("/session")
	session.Use(guard.Middleware(), RequireSession(sessions, cookies))
	{
		session.GET("/me", handlers.Me)
		session.GET("/authorize", handlers.Authorize)
		session.POST("/password", handlers.ChangePassword)
	}

	return router
}
