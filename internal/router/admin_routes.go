package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/handler"
	"github.com/iliyamo/rail-ticket-reservation/internal/middleware"
)

// RegisterAdmin registers operator endpoints under /v1/admin.  All
// routes require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleAdmin),
	)

	g.POST("/stations/:name/invalidate", h.InvalidateStation)
	g.POST("/trains/:number/invalidate", h.InvalidateTrain)
}
