// Package handler contains the HTTP layer: request DTOs, response
// shaping and the mapping from domain errors to status codes.  Handlers
// stay thin; all business rules live in the service layer.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
)

const dateLayout = "2006-01-02"

// getUserID extracts the user_id stored by the JWT middleware.  JWT
// numeric claims decode as float64; refreshed tokens may carry strings.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// fail translates a domain error into a JSON error response.
func fail(c echo.Context, err error) error {
	var ve *repository.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.Is(err, repository.ErrInvalidItinerary):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid itinerary"})
	case errors.Is(err, repository.ErrSeatConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already taken"})
	case errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not in a valid state"})
	case errors.Is(err, repository.ErrStationNotFound),
		errors.Is(err, repository.ErrTrainNotFound),
		errors.Is(err, repository.ErrCapacityNotFound),
		errors.Is(err, repository.ErrJourneyNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// reqCtx bounds handler-side DB work with a per-request timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
