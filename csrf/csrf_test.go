package csrf_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/storelane/authcore/csrf"
)

func mutatingRequest(token, echoed string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/session/password", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: token})
	}
	if echoed != "" {
		req.Header.Set(csrf.HeaderName, echoed)
	}
	return req
}

func TestIssueTokenIsOpaqueAndUnique(t *testing.T) {
	g := csrf.NewGuard(true)

	first, err := g.IssueToken()
	require.NoError(t, err)
	second, err := g.IssueToken()
	require.NoError(t, err)

	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}

func TestVerifyDoubleSubmit(t *testing.T) {
	g := csrf.NewGuard(true)
	token, err := g.IssueToken()
	require.NoError(t, err)

	require.True(t, g.Verify(mutatingRequest(token, token)))
	require.False(t, g.Verify(mutatingRequest(token, "")), "missing echoed value fails closed")
	require.False(t, g.Verify(mutatingRequest("", token)), "missing cookie fails closed")
	require.False(t, g.Verify(mutatingRequest(token, token+"x")), "mismatch fails closed")
}

func TestVerifyAcceptsFormField(t *testing.T) {
	g := csrf.NewGuard(true)
	token, err := g.IssueToken()
	require.NoError(t, err)

	form := url.Values{csrf.FormField: {token}}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: token})

	require.True(t, g.Verify(req))
}

func TestSafeMethodsAlwaysPass(t *testing.T) {
	g := csrf.NewGuard(true)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		req := httptest.NewRequest(method, "/session/me", nil)
		require.True(t, g.Verify(req), "%s must pass without any token", method)
		require.True(t, g.VerifyOrigin(req))
	}
}

func TestVerifyOrigin(t *testing.T) {
	g := csrf.NewGuard(true)

	sameOrigin := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	sameOrigin.Host = "shop.example.com"
	sameOrigin.Header.Set("Origin", "https://shop.example.com")
	require.True(t, g.VerifyOrigin(sameOrigin))

	crossOrigin := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	crossOrigin.Host = "shop.example.com"
	crossOrigin.Header.Set("Origin", "https://evil.example.net")
	require.False(t, g.VerifyOrigin(crossOrigin))

	noOrigin := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	noOrigin.Host = "shop.example.com"
	require.True(t, g.VerifyOrigin(noOrigin), "plain same-origin requests carry no origin header")

	garbage := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	garbage.Host = "shop.example.com"
	garbage.Header.Set("Origin", "::notaurl")
	require.False(t, g.VerifyOrigin(garbage))
}

func TestMiddlewareRejectsBeforeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := csrf.NewGuard(true)

	var handlerRan bool
	router := gin.New()
	router.POST("/session/password", g.Middleware(), func(c *gin.Context) {
		handlerRan = true
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, mutatingRequest("", ""))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, handlerRan, "a rejected request must not reach the handler")

	token, err := g.IssueToken()
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, mutatingRequest(token, token))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, handlerRan)
}

func TestAttachSetsCookieAndHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := csrf.NewGuard(true)
	token, err := g.IssueToken()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	g.Attach(c, token)

	require.Equal(t, token, rec.Header().Get(csrf.HeaderName))

	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	cookie := res.Cookies()[0]
	require.Equal(t, csrf.CookieName, cookie.Name)
	require.Equal(t, token, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}
