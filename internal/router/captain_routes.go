package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/handler"
	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/utils"
)

// RegisterCaptain registers the dashboard endpoints under /v1/captain.  All
// routes require a valid JWT with the CAPTAIN role.
func RegisterCaptain(e *echo.Echo, h *handler.CaptainHandler, jwtSecret string) {
	g := e.Group(
		"/v1/captain",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleCaptain),
	)

	// ---- Bookings ----
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/export", h.ExportBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.PATCH("/bookings/:id/status", h.ChangeStatus)
	g.PATCH("/bookings/:id/schedule", h.UpdateSchedule)
	g.POST("/bookings/:id/weather-hold", h.WeatherHold)
	g.POST("/bookings/:id/offers", h.CreateOffers)
	g.GET("/bookings/:id/offers", h.ListOffers)
	g.GET("/bookings/:id/logs", h.ListLogs)
	g.POST("/bookings/:id/notes", h.AddNote)

	// ---- Calendar ----
	g.GET("/availability/windows", h.ListWindows)
	g.PUT("/availability/windows", h.ReplaceWindows)
	g.GET("/blackouts", h.ListBlackouts)
	g.POST("/blackouts", h.AddBlackout)
	g.DELETE("/blackouts/:id", h.DeleteBlackout)
}
