package auth

import (
	"net/http"
	"time"
)

const (
	AccessCookieName  = "washa_access"
	RefreshCookieName = "washa_refresh"

	// The refresh token is only ever read by the refresh and logout routes.
	refreshCookiePath = "/api/auth"
)

type CookieConfig struct {
	Domain string
	Secure bool
}

func SetAuthCookies(w http.ResponseWriter, cfg CookieConfig, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, cfg.cookie(AccessCookieName, "/", accessToken, int(accessTTL.Seconds())))
	http.SetCookie(w, cfg.cookie(RefreshCookieName, refreshCookiePath, refreshToken, int(refreshTTL.Seconds())))
}

func ClearAuthCookies(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, cfg.cookie(AccessCookieName, "/", "", -1))
	http.SetCookie(w, cfg.cookie(RefreshCookieName, refreshCookiePath, "", -1))
}

func (cfg CookieConfig) cookie(name, path, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}
