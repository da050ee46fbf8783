package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/handler"
)

// RegisterPublic registers the unauthenticated query surface: route
// resolution, registry listings, timetables and remaining-seat counts.
// The caller passes the cache and rate-limit middleware so that guests
// hitting the search endpoints share one budget.
func RegisterPublic(e *echo.Echo, s *handler.SearchHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)

	g.GET("/routes/direct", s.Direct)
	g.GET("/routes/transfer", s.Transfer)

	g.GET("/stations", s.ListStations)
	g.GET("/cities", s.ListCities)
	g.GET("/provinces", s.ListProvinces)
	g.GET("/trains", s.ListTrains)
	g.GET("/trains/:number/journeys", s.TrainJourneys)
	g.GET("/trains/:number/carriages/:idx/remaining", s.Remaining)
}
