package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/service"
)

// ListWindows handles GET /v1/captain/availability/windows.
func (h *CaptainHandler) ListWindows(c echo.Context) error {
	ws, err := h.Calendar.ListWindows(c.Request().Context(), middleware.CaptainID(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ws})
}

type windowsBody struct {
	Windows []service.WindowInput `json:"windows"`
}

// ReplaceWindows handles PUT /v1/captain/availability/windows.  The body
// replaces the whole weekly schedule.
func (h *CaptainHandler) ReplaceWindows(c echo.Context) error {
	var body windowsBody
	if err := c.Bind(&body); err != nil {
		return invalidBody(c)
	}
	ws, err := h.Calendar.ReplaceWindows(c.Request().Context(), middleware.CaptainID(c), body.Windows)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ws})
}

// ListBlackouts handles GET /v1/captain/blackouts?from=&to=.
func (h *CaptainHandler) ListBlackouts(c echo.Context) error {
	bs, err := h.Calendar.ListBlackouts(c.Request().Context(), middleware.CaptainID(c), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bs})
}

type blackoutBody struct {
	Date   string  `json:"date"`
	Reason *string `json:"reason"`
}

// AddBlackout handles POST /v1/captain/blackouts.  A second blackout on the
// same date is a 409.
func (h *CaptainHandler) AddBlackout(c echo.Context) error {
	var body blackoutBody
	if err := c.Bind(&body); err != nil {
		return invalidBody(c)
	}
	b, err := h.Calendar.AddBlackout(c.Request().Context(), middleware.CaptainID(c), body.Date, body.Reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// DeleteBlackout handles DELETE /v1/captain/blackouts/:id.
func (h *CaptainHandler) DeleteBlackout(c echo.Context) error {
	if err := h.Calendar.DeleteBlackout(c.Request().Context(), middleware.CaptainID(c), c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
