// Package router registers the HTTP routes of the booking API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/handler"
)

// Limits carries the shared middlewares routes opt into.  Nil fields are
// skipped.
type Limits struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (l Limits) rate() []echo.MiddlewareFunc {
	if l.RateLimit == nil {
		return nil
	}
	return []echo.MiddlewareFunc{l.RateLimit}
}

func (l Limits) cache() []echo.MiddlewareFunc {
	if l.Cache == nil {
		return nil
	}
	return []echo.MiddlewareFunc{l.Cache}
}

// RegisterRoutes registers the unauthenticated endpoints: the health check,
// the availability lookup and booking creation.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, p *handler.PublicHandler, l Limits) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/v1/captains/:id/availability", p.Availability, l.cache()...)
	e.POST("/v1/bookings", p.CreateBooking, l.rate()...)
}
