package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/handler"
	"github.com/iliyamo/rail-ticket-reservation/internal/middleware"
)

// RegisterUser registers passenger-scoped endpoints under /v1.  All
// routes require a valid JWT with the USER role.  Passengers can book
// seats, pay for orders, print tickets, cancel bookings and list their
// own orders.
func RegisterUser(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleUser),
	)

	g.POST("/orders", h.Book)
	g.GET("/orders", h.List)
	g.POST("/orders/:id/ticket", h.Issue)
	g.POST("/orders/:id/cancel", h.Cancel)
	g.POST("/tickets/:id/printed", h.Printed)
}
