// Package csrf implements double-submit forgery protection: an opaque
// random value lives both in a same-site cookie the server sets and in
// a header or form field the client echoes back. A mutating request is
// accepted only when both values are present and equal.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName holds the server-set half of the token pair.
	CookieName = "authcore_csrf"

	// HeaderName carries the client-echoed half on API requests.
	HeaderName = "X-CSRF-Token"

	// FormField carries the client-echoed half on form submissions.
	FormField = "csrf_token"

	tokenBytes   = 32
	cookieMaxAge = 12 * 60 * 60
)

// Guard issues and verifies token pairs and validates request origin.
type Guard struct {
	secure bool
}

// NewGuard creates a guard. secure controls the cookie's Secure flag
// and should be true everywhere except local development.
func NewGuard(secure bool) *Guard {
	return &Guard{secure: secure}
}

// IssueToken generates a cryptographically random opaque token.
func (g *Guard) IssueToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Attach stores the token as a script-inaccessible same-site cookie
// and exposes the same value in a response header for the client to
// echo back on mutating requests.
func (g *Guard) Attach(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	c.Header(HeaderName, token)
}

// Verify checks the double-submit pair. Safe methods always pass.
// Mutating requests fail closed when either value is missing or the
// values differ; the comparison is constant time.
func (g *Guard) Verify(r *http.Request) bool {
	if isSafeMethod(r.Method) {
		return true
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	echoed := r.Header.Get(HeaderName)
	if echoed == "" {
		echoed = r.PostFormValue(FormField)
	}
	if echoed == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(echoed)) == 1
}

// VerifyOrigin checks that a mutating request's declared origin
// resolves to the serving host. A missing Origin header is accepted:
// plain same-origin requests do not always carry one, and the cookie's
// SameSite attribute already restricts the cross-site case.
func (g *Guard) VerifyOrigin(r *http.Request) bool {
	if isSafeMethod(r.Method) {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Host == r.Host
}

// Middleware runs the origin check first, then the token check.
// Either failure aborts with 403 before the handler can produce side
// effects.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.VerifyOrigin(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cross-origin request rejected"})
			return
		}
		if !g.Verify(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "stale or missing csrf token, reload and retry"})
			return
		}
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
