// Package router wires HTTP routes to handlers and attaches the JWT,
// role, cache and rate-limit middleware per route group.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/handler"
	"github.com/iliyamo/rail-ticket-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/admin/login", a.AdminLogin)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleUser, handler.RoleAdmin),
	)
	auth.GET("/me", a.Me)
}
