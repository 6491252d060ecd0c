package service

import (
	"context"
	"time"

	"github.com/iliyamo/charter-booking/internal/availability"
	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// The store interfaces are implemented by the repository package and by
// in-memory fakes in tests.

type BookingStore interface {
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetForCaptain(ctx context.Context, captainID, id string) (*model.Booking, error)
	FindConflicts(ctx context.Context, q repository.ConflictQuery) ([]model.Booking, error)
	CreateIfFree(ctx context.Context, b *model.Booking, tok repository.AccessToken, buffer time.Duration) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, holdReason *string) error
	Reschedule(ctx context.Context, m repository.Reschedule) ([]model.Booking, error)
	UpdatePayment(ctx context.Context, p repository.PaymentUpdate) error
	ListStaleDeposits(ctx context.Context, now time.Time, defaultWindow time.Duration, limit int) ([]model.Booking, error)
	List(ctx context.Context, q listing.Resolved) ([]model.Booking, int, error)
}

type OfferStore interface {
	CreateBulk(ctx context.Context, offers []model.RescheduleOffer) error
	ListByBooking(ctx context.Context, bookingID string) ([]model.RescheduleOffer, error)
}

type AvailabilityStore interface {
	Windows(ctx context.Context, captainID string) ([]model.AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, captainID string, windows []model.AvailabilityWindow) error
	Blackouts(ctx context.Context, captainID, from, to string) ([]model.BlackoutDate, error)
	Rules(ctx context.Context, captainID, localDate string) (availability.Rules, error)
	AddBlackout(ctx context.Context, b *model.BlackoutDate) error
	DeleteBlackout(ctx context.Context, captainID, id string) error
}

type CatalogStore interface {
	Profile(ctx context.Context, captainID string) (*model.CaptainProfile, error)
	Vessel(ctx context.Context, id string) (*model.Vessel, error)
	TripType(ctx context.Context, id string) (*model.TripType, error)
}

type LogStore interface {
	Append(ctx context.Context, e *model.BookingLog) error
	ListByBooking(ctx context.Context, bookingID string) ([]model.BookingLog, error)
}

type TokenStore interface {
	Resolve(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// Notifier hands booking events to the notification pipeline.  Delivery is
// fire-and-forget: errors are logged by the caller and never fail the
// operation that produced the event.
type Notifier interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, queue.BookingEvent) error { return nil }
