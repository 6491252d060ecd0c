package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GuestHandler serves the manage-my-booking pages.  The token in the path
// is the only credential.
type GuestHandler struct {
	Bookings GuestBookings
	Log      *zap.Logger
}

func NewGuestHandler(b GuestBookings, log *zap.Logger) *GuestHandler {
	if b == nil {
		panic("nil dependency passed to NewGuestHandler")
	}
	return &GuestHandler{Bookings: b, Log: log}
}

// Get handles GET /v1/manage/:token.
func (h *GuestHandler) Get(c echo.Context) error {
	b, err := h.Bookings.GetByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Offers handles GET /v1/manage/:token/offers.
func (h *GuestHandler) Offers(c echo.Context) error {
	offers, err := h.Bookings.ListOffersByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": offers})
}

// SelectOffer handles POST /v1/manage/:token/offers/:offer_id/select.
func (h *GuestHandler) SelectOffer(c echo.Context) error {
	b, err := h.Bookings.SelectOffer(c.Request().Context(), c.Param("token"), c.Param("offer_id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type messageBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// RequestDates handles POST /v1/manage/:token/date-request.
func (h *GuestHandler) RequestDates(c echo.Context) error {
	var body messageBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "request body is not valid JSON"})
	}
	if err := h.Bookings.RequestDifferentDates(c.Request().Context(), c.Param("token"), body.Message); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "sent"})
}

// Cancel handles POST /v1/manage/:token/cancel.  The body is optional.
func (h *GuestHandler) Cancel(c echo.Context) error {
	var body messageBody
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "request body is not valid JSON"})
		}
	}
	b, err := h.Bookings.CancelByToken(c.Request().Context(), c.Param("token"), body.Reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
