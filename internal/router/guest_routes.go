package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/handler"
)

// RegisterGuest registers the manage-my-booking endpoints under
// /v1/manage/:token.  The token is the credential, so every route is rate
// limited.
func RegisterGuest(e *echo.Echo, h *handler.GuestHandler, l Limits) {
	g := e.Group("/v1/manage/:token", l.rate()...)
	g.GET("", h.Get)
	g.GET("/offers", h.Offers)
	g.POST("/offers/:offer_id/select", h.SelectOffer)
	g.POST("/date-request", h.RequestDates)
	g.POST("/cancel", h.Cancel)
}
