package handler

import (
	"net/http"
	"time"

	"go-calendar/internal/model"
)

type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c CookieConfig) setSession(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, c.cookie(model.AccessTokenCookie, pair.AccessToken, int(c.AccessTTL.Seconds())))
	http.SetCookie(w, c.cookie(model.RefreshTokenCookie, pair.RefreshToken, int(c.RefreshTTL.Seconds())))
}

// clearSession expires both session cookies in the browser.
func (c CookieConfig) clearSession(w http.ResponseWriter) {
	for _, name := range []string{model.AccessTokenCookie, model.RefreshTokenCookie} {
		cookie := c.cookie(name, "", -1)
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (c CookieConfig) cookie(name string, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
