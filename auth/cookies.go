package auth

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "sb-access-token"
	RefreshCookie = "sb-refresh-token"

	refreshCookieTTL = 30 * 24 * time.Hour
)

// Cookies writes the session cookies. They are scoped to the root domain so
// the admin subdomain and the root site share one session.
type Cookies struct {
	Domain string
	Secure bool
}

func (c Cookies) Set(w http.ResponseWriter, s *Session) {
	maxAge := s.ExpiresIn
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	http.SetCookie(w, c.cookie(AccessCookie, s.AccessToken, maxAge))
	http.SetCookie(w, c.cookie(RefreshCookie, s.RefreshToken, int(refreshCookieTTL.Seconds())))
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookie, "", -1))
	http.SetCookie(w, c.cookie(RefreshCookie, "", -1))
}

func (c Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.Domain != "" && c.Domain != "localhost" && c.Domain != "127.0.0.1" {
		cookie.Domain = c.Domain
	}
	return cookie
}

// Tokens reads the access and refresh tokens from the request. A bearer
// Authorization header takes precedence over the access cookie.
func Tokens(r *http.Request) (access, refresh string) {
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		access = h[7:]
	} else if c, err := r.Cookie(AccessCookie); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		refresh = c.Value
	}
	return access, refresh
}
