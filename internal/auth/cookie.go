package auth

import (
	"net/http"
	"time"
)

// CookieName is the name of the credential cookie.
const CookieName = "token"

// Cookies writes and clears the credential cookie. In production the cookie
// must travel cross-site over TLS; elsewhere it stays same-site.
type Cookies struct {
	Secure bool
	now    func() time.Time
}

// NewCookies constructs Cookies for the given deployment.
func NewCookies(production bool, now func() time.Time) *Cookies {
	if now == nil {
		now = time.Now
	}
	return &Cookies{Secure: production, now: now}
}

// Set places token in an HTTP-only cookie that expires with the token.
func (c *Cookies) Set(w http.ResponseWriter, token string, expires time.Time) {
	ck := c.base()
	ck.Value = token
	ck.Expires = expires
	ck.MaxAge = int(expires.Sub(c.now()).Seconds())
	http.SetCookie(w, ck)
}

// Clear removes the credential cookie. It is safe to call repeatedly.
func (c *Cookies) Clear(w http.ResponseWriter) {
	ck := c.base()
	ck.Expires = time.Unix(0, 0)
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

func (c *Cookies) base() *http.Cookie {
	ck := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if c.Secure {
		ck.Secure = true
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}
