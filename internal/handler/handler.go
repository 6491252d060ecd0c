// Package handler exposes the booking engine over HTTP.  Handlers decode
// requests, call the service layer and translate its errors to JSON
// responses; they hold no business rules of their own.
package handler

import (
	"bytes"
	"context"
	"time"

	"github.com/iliyamo/charter-booking/internal/availability"
	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// The interfaces below are the slices of *service.BookingService and
// *service.AvailabilityService each audience needs.

type BookingCreator interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*service.CreateBookingResult, error)
}

type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, captainID string, start, end time.Time) (availability.Result, error)
}

type GuestBookings interface {
	GetByToken(ctx context.Context, token string) (*model.Booking, error)
	ListOffersByToken(ctx context.Context, token string) ([]model.RescheduleOffer, error)
	SelectOffer(ctx context.Context, token, offerID string) (*model.Booking, error)
	RequestDifferentDates(ctx context.Context, token, message string) error
	CancelByToken(ctx context.Context, token, reason string) (*model.Booking, error)
}

type CaptainBookings interface {
	ListBookings(ctx context.Context, q listing.Query) (listing.Page, error)
	ExportBookings(ctx context.Context, q listing.Query) (*bytes.Buffer, string, error)
	GetForCaptain(ctx context.Context, captainID, bookingID string) (*model.Booking, error)
	ChangeStatus(ctx context.Context, captainID, bookingID string, to model.BookingStatus, note string) (*model.Booking, error)
	UpdateSchedule(ctx context.Context, captainID, bookingID string, in service.ScheduleInput) (*model.Booking, error)
	PlaceWeatherHold(ctx context.Context, captainID, bookingID, reason string) (*model.Booking, error)
	CreateOffers(ctx context.Context, captainID, bookingID string, in []service.OfferInput) ([]model.RescheduleOffer, error)
	ListOffers(ctx context.Context, captainID, bookingID string) ([]model.RescheduleOffer, error)
	ListLogs(ctx context.Context, captainID, bookingID string) ([]model.BookingLog, error)
	AddNote(ctx context.Context, captainID, bookingID, note string) (*model.BookingLog, error)
}

type CalendarAdmin interface {
	ListWindows(ctx context.Context, captainID string) ([]model.AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, captainID string, in []service.WindowInput) ([]model.AvailabilityWindow, error)
	ListBlackouts(ctx context.Context, captainID, from, to string) ([]model.BlackoutDate, error)
	AddBlackout(ctx context.Context, captainID, date string, reason *string) (*model.BlackoutDate, error)
	DeleteBlackout(ctx context.Context, captainID, id string) error
}
