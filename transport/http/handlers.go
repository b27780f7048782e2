package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storelane/authcore/core"
	"github.com/storelane/authcore/csrf"
	"github.com/storelane/authcore/service"
)

// SessionHandlers contains HTTP handlers for the session endpoints.
type SessionHandlers struct {
	sessions *service.SessionService
	guard    *csrf.Guard
	cookies  CookieConfig
	logger   *zap.Logger
}

// NewSessionHandlers creates new session handlers.
func NewSessionHandlers(sessions *service.SessionService, guard *csrf.Guard, cookies CookieConfig, logger *zap.Logger) *SessionHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandlers{
		sessions: sessions,
		guard:    guard,
		cookies:  cookies,
		logger:   logger,
	}
}

// Login handles the login request. On success both tokens are
// committed as cookies and a fresh CSRF token is attached; the tokens
// themselves never appear in the response body.
func (h *SessionHandlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	pair, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		var throttled *core.ThrottledError
		switch {
		case errors.As(err, &throttled):
			c.Header("Retry-After", strconv.Itoa(int(throttled.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
		case errors.Is(err, core.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		}
		return
	}

	h.cookies.setTokenCookie(c, AccessCookieName, pair.AccessToken, pair.AccessClaims)
	h.cookies.setTokenCookie(c, RefreshCookieName, pair.RefreshToken, pair.RefreshClaims)

	csrfToken, err := h.guard.IssueToken()
	if err != nil {
		h.logger.Error("issue csrf token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}
	h.guard.Attach(c, csrfToken)

	c.JSON(http.StatusOK, gin.H{
		"expires_at": pair.AccessClaims.ExpiresAt,
	})
}

// Refresh mints a new access token from the refresh cookie.
func (h *SessionHandlers) Refresh(c *gin.Context) {
	refreshToken := cookieValue(c, RefreshCookieName)
	if refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	accessToken, claims, err := h.sessions.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	h.cookies.setTokenCookie(c, AccessCookieName, accessToken, claims)
	c.JSON(http.StatusOK, gin.H{
		"expires_at": claims.ExpiresAt,
	})
}

// Logout terminates the session and clears every session cookie.
func (h *SessionHandlers) Logout(c *gin.Context) {
	if refreshToken := cookieValue(c, RefreshCookieName); refreshToken != "" {
		if err := h.sessions.Logout(c.Request.Context(), refreshToken); err != nil {
			h.logger.Error("logout failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}

	h.cookies.clearCookie(c, AccessCookieName)
	h.cookies.clearCookie(c, RefreshCookieName)
	h.cookies.clearCookie(c, csrf.CookieName)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the resolved session claims.
func (h *SessionHandlers) Me(c *gin.Context) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_id": claims.SubjectID,
		"email":      claims.Email,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt,
	})
}

// Authorize confirms the session middleware accepted the request.
func (h *SessionHandlers) Authorize(c *gin.Context) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorized": true,
		"subject_id": claims.SubjectID,
		"role":       claims.Role,
	})
}

// ChangePassword rotates the caller's password. The watermark advance
// revokes every outstanding token, including the one used for this
// request, so the cookies are cleared and the client must log in
// again.
func (h *SessionHandlers) ChangePassword(c *gin.Context) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current_password and new_password (min 8 chars) are required"})
		return
	}

	err := h.sessions.ChangePassword(c.Request.Context(), claims.SubjectID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("change password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password change failed"})
		return
	}

	h.cookies.clearCookie(c, AccessCookieName)
	h.cookies.clearCookie(c, RefreshCookieName)
	h.cookies.clearCookie(c, csrf.CookieName)

	c.JSON(http.StatusOK, gin.H{"message": "password changed, log in again"})
}
