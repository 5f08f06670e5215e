package session

import (
	"net/http"
	"time"
)

// Cookie names shared by the HTTP handlers and the socket gateway.
const (
	// CookieName carries the session token. HttpOnly: scripts never see it.
	CookieName = "session_id"
	// ProvisionalCookieName carries the OAuth access token between the
	// provider callback and registration completion for first-time users.
	// Not HttpOnly: the register page reads it. Short lived.
	ProvisionalCookieName = "access_token"
)

// ProvisionalMaxAge bounds the window in which a first-time user can finish
// registration with the provisional token.
const ProvisionalMaxAge = 720000 // seconds

// NewCookie builds the session cookie for a freshly issued token.
func NewCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired session cookie for logout responses.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewProvisionalCookie builds the short-lived OAuth access token cookie set
// when the callback finds no account for the provider email.
func NewProvisionalCookie(accessToken string) *http.Cookie {
	return &http.Cookie{
		Name:     ProvisionalCookieName,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   ProvisionalMaxAge,
		HttpOnly: false,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// ClearProvisionalCookie removes the provisional cookie once registration
// completes.
func ClearProvisionalCookie() *http.Cookie {
	return &http.Cookie{
		Name:     ProvisionalCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
