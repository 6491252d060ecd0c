package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CaptainHandler serves the captain dashboard.  Every route runs behind
// JWTAuth and RequireRole, so the captain id always comes from the token.
type CaptainHandler struct {
	Bookings CaptainBookings
	Calendar CalendarAdmin
	Log      *zap.Logger
}

func NewCaptainHandler(b CaptainBookings, cal CalendarAdmin, log *zap.Logger) *CaptainHandler {
	if b == nil || cal == nil {
		panic("nil dependency passed to NewCaptainHandler")
	}
	return &CaptainHandler{Bookings: b, Calendar: cal, Log: log}
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "request body is not valid JSON"})
}

// ListBookings handles GET /v1/captain/bookings.  Passing page switches
// from cursor pagination to numbered pages.
func (h *CaptainHandler) ListBookings(c echo.Context) error {
	q, err := parseListQuery(c, middleware.CaptainID(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	page, err := h.Bookings.ListBookings(c.Request().Context(), q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, pageBody(page))
}

// ExportBookings handles GET /v1/captain/bookings/export.  It takes the
// list filters and returns a spreadsheet attachment.
func (h *CaptainHandler) ExportBookings(c echo.Context) error {
	q, err := parseListQuery(c, middleware.CaptainID(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	buf, name, err := h.Bookings.ExportBookings(c.Request().Context(), q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

// GetBooking handles GET /v1/captain/bookings/:id.
func (h *CaptainHandler) GetBooking(c echo.Context) error {
	b, err := h.Bookings.GetForCaptain(c.Request().Context(), middleware.CaptainID(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type statusBody struct {
	Status model.BookingStatus `json:"status"`
	Note   string              `json:"note"`
}

// ChangeStatus handles PATCH /v1/captain/bookings/:id/status.
func (h *CaptainHandler) ChangeStatus(c echo.Context) error {
	var body statusBody
	if err := c.Bind(&body); err != nil {
		return invalidBody(c)
	}
	b, err := h.Bookings.ChangeStatus(c.Request().Context(), middleware.CaptainID(c), c.Param("id"), body.Status, body.Note)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// UpdateSchedule handles PATCH /v1/captain/bookings/:id/schedule.
func (h *CaptainHandler) UpdateSchedule(c echo.Context) error {
	var in service.ScheduleInput
	if err := c.Bind(&in); err != nil {
		return invalidBody(c)
	}
	b, err := h.Bookings.UpdateSchedule(c.Request().Context(), middleware.CaptainID(c), c.Param("id"), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// WeatherHold handles POST /v1/captain/bookings/:id/weather-hold.
func (h *CaptainHandler) WeatherHold(c echo.Context) error {
	var body messageBody
	if err := c.Bind(&body); err != nil {
		return invalidBody(c)
	}
	b, err := h.Bookings.PlaceWeatherHold(c.Request().Context(), middleware.CaptainID(c), c.Param("id"), body.Reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type offersBody struct {
	Offers []service.OfferInput `json:"offers"`
}

// CreateOffers handles POST /v1/captain/bookings/:id/offers.
func (h *CaptainHandler) CreateOffers(c echo.Context) error {
	var body offersBody
	if err := c.Bind(&body); err != nil {
		return invalidBody(c)
	}
	offers, err := h.Bookings.CreateOffers(c.Request().Context(), middleware.CaptainID(c), c.Param("id"), body.Offers)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": offers})
}

// ListOffers handles GET /v1/captain/bookings/:id/offers.
func (h *CaptainHandler) ListOffers(c echo.Context) error {
	offers, err := h.Bookings.ListOffers(c.Request().Context(), middleware.CaptainID(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": offers})
}

// ListLogs handles GET /v1/captain/bookings/:id/logs, oldest entry first.
func (h *CaptainHandler) ListLogs(c echo.Context) error {
	logs, err := h.Bookings.ListLogs(c.Request().Context(), middleware.CaptainID(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": logs})
}

type noteBody struct {
	Note string `json:"note"`
}

// AddNote handles POST /v1/captain/bookings/:id/notes.
func (h *CaptainHandler) AddNote(c echo.Context) error {
	var body noteBody
	if err := c.Bind(&body); err != nil {
		return invalidBody(c)
	}
	entry, err := h.Bookings.AddNote(c.Request().Context(), middleware.CaptainID(c), c.Param("id"), body.Note)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, entry)
}
