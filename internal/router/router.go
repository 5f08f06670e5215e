package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/pong-social/internal/gateway"
	"github.com/iliyamo/pong-social/internal/handler"
	"github.com/iliyamo/pong-social/internal/middleware"
	"github.com/iliyamo/pong-social/internal/session"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and their middleware.
// The OAuth round trip (sign-in, callback, register) is unauthenticated by
// nature; logout and profile access sit behind the session guard.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessions *session.Store) {
	g := e.Group("/v1/auth")
	g.GET("/sign-in", a.SignIn)
	g.GET("/callback", a.Callback)
	g.POST("/register", a.Register)
	g.POST("/logout", a.Logout, middleware.SessionAuth(sessions))

	auth := e.Group("/v1")
	auth.Use(middleware.SessionAuth(sessions))
	auth.GET("/me", a.Me)
}

// RegisterGateway mounts the socket endpoint.  Authentication happens
// inside the gateway after the upgrade so that failures close the socket
// without a handshake-level error payload.
func RegisterGateway(e *echo.Echo, gw *gateway.Gateway) {
	e.GET("/ws", gw.HandleWS)
}
