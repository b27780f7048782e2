package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storelane/authcore/core"
)

const (
	// AccessCookieName holds the access token.
	AccessCookieName = "authcore_access"

	// RefreshCookieName holds the refresh token. It shares the access
	// cookie's path because the session middleware performs silent
	// refresh on any protected route.
	RefreshCookieName = "authcore_refresh"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	// Secure requires transport encryption; enabled everywhere except
	// local development.
	Secure bool
}

// Both token cookies are script-inaccessible and same-site
// restricted; their max age tracks the token's own expiry so the
// browser and the signature agree on the lifetime.
func (cc CookieConfig) setTokenCookie(c *gin.Context, name, token string, claims *core.Claims) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(time.Until(claims.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (cc CookieConfig) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(c *gin.Context, name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
