package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/service"
)

// conflictView is what callers learn about a clashing booking: when and on
// which vessel, never who.
type conflictView struct {
	ID             string    `json:"id"`
	VesselID       string    `json:"vessel_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
}

func conflictViews(bs []model.Booking) []conflictView {
	out := make([]conflictView, 0, len(bs))
	for _, b := range bs {
		out = append(out, conflictView{ID: b.ID, VesselID: b.VesselID, ScheduledStart: b.ScheduledStart, ScheduledEnd: b.ScheduledEnd})
	}
	return out
}

func badRequest(c echo.Context, field, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "field": field, "message": msg})
}

// respondError writes the JSON error response for err.  Unknown errors are
// logged and reported as 500 without detail.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var (
		ve *service.ValidationError
		ue *service.UnavailableError
		ce *service.ConflictError
		te *service.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		return badRequest(c, ve.Field, ve.Message)
	case errors.As(err, &ue):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unavailable", "message": ue.Reason})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": ce.Error(), "conflicts": conflictViews(ce.Conflicts)})
	case errors.As(err, &te):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": te.Error(), "from": te.From, "to": te.To})
	case errors.Is(err, service.ErrOfferAlreadySelected):
		return c.JSON(http.StatusConflict, echo.Map{"error": "offer_taken", "message": err.Error()})
	case errors.Is(err, service.ErrOfferExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "offer_expired", "message": err.Error()})
	case errors.Is(err, service.ErrOfferNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer_not_found", "message": err.Error()})
	case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "belongs to another captain"})
	case errors.Is(err, service.ErrNotOnHold):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not_on_hold", "message": err.Error()})
	case errors.Is(err, service.ErrBookingLocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking_locked", "message": err.Error()})
	case errors.Is(err, service.ErrStaleBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": "stale_write", "message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "already exists"})
	}
	log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "internal error"})
}
