package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/service"
)

// PublicHandler serves the unauthenticated booking widget.
type PublicHandler struct {
	Bookings BookingCreator
	Checker  AvailabilityChecker
	Log      *zap.Logger
}

func NewPublicHandler(b BookingCreator, a AvailabilityChecker, log *zap.Logger) *PublicHandler {
	if b == nil || a == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Bookings: b, Checker: a, Log: log}
}

func parseInstant(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, &service.ValidationError{Field: name, Message: "is required"}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: name, Message: "must be an RFC 3339 timestamp"}
	}
	return t, nil
}

// Availability handles GET /v1/captains/:id/availability?start=&end=.  An
// unavailable slot is still a 200; the body carries the reason.
func (h *PublicHandler) Availability(c echo.Context) error {
	start, err := parseInstant(c, "start")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	end, err := parseInstant(c, "end")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Checker.IsAvailable(c.Request().Context(), c.Param("id"), start, end)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CreateBooking handles POST /v1/bookings.  The response carries the
// management token; it is shown only once.
func (h *PublicHandler) CreateBooking(c echo.Context) error {
	var in service.CreateBookingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "request body is not valid JSON"})
	}
	res, err := h.Bookings.CreateBooking(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}
