package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

func (s *Server) tokenCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.engine.Config().Cookie.Secure,
	}
}

// setTokenCookies writes both session cookies. Cookie lifetimes track the
// configured token lifetimes so the browser drops them around the time the
// tokens stop verifying anyway.
func (s *Server) setTokenCookies(c echo.Context, access, refresh string) {
	cfg := s.engine.Config()
	c.SetCookie(s.tokenCookie(accessCookieName, access, cfg.JWT.AccessTTL))
	c.SetCookie(s.tokenCookie(refreshCookieName, refresh, cfg.JWT.RefreshTTL))
}

func (s *Server) clearTokenCookies(c echo.Context) {
	c.SetCookie(s.tokenCookie(accessCookieName, "", -time.Second))
	c.SetCookie(s.tokenCookie(refreshCookieName, "", -time.Second))
}

// cookieValue reads a cookie, returning "" when it is absent.
func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
