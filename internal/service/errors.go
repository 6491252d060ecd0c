package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// ValidationError reports malformed input.  Nothing was changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnavailableError is returned when the slot falls outside the captain's
// calendar.  Reason is meant for the guest.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string { return "not available: " + e.Reason }

// ConflictError is returned when the vessel is already booked for an
// overlapping slot.  Conflicts lets the caller offer alternatives.
type ConflictError struct {
	Conflicts []model.Booking
}

func (e *ConflictError) Error() string {
	spans := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		spans = append(spans, b.ScheduledStart.Format("2006-01-02 15:04")+"-"+b.ScheduledEnd.Format("15:04 MST"))
	}
	return fmt.Sprintf("vessel is already booked %s", strings.Join(spans, ", "))
}

// TransitionError is returned for a status change the lifecycle forbids.
type TransitionError struct {
	From model.BookingStatus
	To   model.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingLocked   = errors.New("booking is closed and can no longer be changed")
	ErrNotOnHold       = errors.New("booking is not on weather hold")
	ErrStaleBooking    = errors.New("booking was changed by someone else; reload and try again")

	ErrOfferNotFound        = repository.ErrOfferNotFound
	ErrOfferExpired         = repository.ErrOfferExpired
	ErrOfferAlreadySelected = repository.ErrOfferTaken
)

// bookingErr maps store errors on booking lookups and writes to the
// service vocabulary.
func bookingErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrStaleBooking
	}
	return err
}
