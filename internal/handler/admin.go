package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/service"
)

// AdminHandler exposes the soft-delete maintenance operations.
type AdminHandler struct {
	Maint *service.MaintenanceService
}

func NewAdminHandler(m *service.MaintenanceService) *AdminHandler {
	return &AdminHandler{Maint: m}
}

// InvalidateStation soft-deletes a station and renumbers every train
// that served it.
func (h *AdminHandler) InvalidateStation(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "station name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Maint.InvalidateStation(ctx, name); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"station": name, "invalidated": true})
}

// InvalidateTrain soft-deletes a whole train: its capacities and stops.
func (h *AdminHandler) InvalidateTrain(c echo.Context) error {
	train := c.Param("number")
	if train == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train number required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Maint.InvalidateTrain(ctx, train); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"train": train, "invalidated": true})
}
