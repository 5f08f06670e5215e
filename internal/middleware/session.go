package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // bounded timeouts on session store calls

    "context"

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/pong-social/internal/session"
)

// SessionAuth returns an Echo middleware that validates the request's
// session credential and injects the resolved user id into the request
// context. The credential is the HttpOnly session cookie; a bearer token
// carrying the session token is accepted as well for non-browser callers.
// Every failure mode (missing token, expired record, superseded by a newer
// login, or a store that cannot answer) denies access. Handlers behind
// this middleware read the identity via c.Get("user_id") and the raw token
// via c.Get("session_token").
func SessionAuth(store *session.Store) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            token := ""
            if ck, err := c.Cookie(session.CookieName); err == nil {
                token = ck.Value
            }
            if token == "" {
                if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
                    token = strings.TrimPrefix(auth, "Bearer ")
                }
            }
            if token == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            userID, err := store.Validate(ctx, token)
            if err != nil {
                // Fail closed on store errors too: an identity we cannot
                // verify is an identity we do not accept.
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
            }

            c.Set("user_id", userID)
            c.Set("session_token", token)
            return next(c)
        }
    }
}
