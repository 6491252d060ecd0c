package model

import "fmt"

// BookingStatus is the lifecycle state of a booking.  The string values are
// stored in bookings.status and exposed on the wire, so they must not change.
type BookingStatus string

const (
	StatusPendingDeposit BookingStatus = "pending_deposit"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusWeatherHold    BookingStatus = "weather_hold"
	StatusRescheduled    BookingStatus = "rescheduled"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusNoShow         BookingStatus = "no_show"
	StatusExpired        BookingStatus = "expired"
)

// AllStatuses lists every status.  A status added here without an entry in
// transitions fails TestEveryStatusHasTransitionEntry.
var AllStatuses = []BookingStatus{
	StatusPendingDeposit,
	StatusConfirmed,
	StatusWeatherHold,
	StatusRescheduled,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
	StatusExpired,
}

// ActiveStatuses are the statuses that occupy a vessel and participate in
// conflict detection.  It is also the default status filter for listings.
var ActiveStatuses = []BookingStatus{
	StatusPendingDeposit,
	StatusConfirmed,
	StatusWeatherHold,
	StatusRescheduled,
}

// transitions is the directed status graph.  Terminal statuses map to an
// empty slice; self-loops are never allowed.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPendingDeposit: {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed:      {StatusWeatherHold, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusWeatherHold:    {StatusConfirmed, StatusRescheduled, StatusCancelled},
	StatusRescheduled:    {StatusConfirmed, StatusWeatherHold, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted:      {},
	StatusCancelled:      {},
	StatusNoShow:         {},
	StatusExpired:        {},
}

// CanTransition reports whether a booking may move from one status to
// another.  Unknown statuses never transition.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func (s BookingStatus) NextStatuses() []BookingStatus {
	out := make([]BookingStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsActive reports whether the status holds the vessel.
func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string { return string(s) }

// ParseBookingStatus converts a wire value into a BookingStatus.
func ParseBookingStatus(v string) (BookingStatus, error) {
	s := BookingStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid booking status: %q", v)
	}
	return s, nil
}

// PaymentStatus tracks money owed on a booking.  It is fed by the payment
// processor and is independent of BookingStatus.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentDepositPaid       PaymentStatus = "deposit_paid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

var paymentStatuses = map[PaymentStatus]bool{
	PaymentUnpaid:            true,
	PaymentDepositPaid:       true,
	PaymentPaid:              true,
	PaymentRefunded:          true,
	PaymentPartiallyRefunded: true,
}

func (p PaymentStatus) Valid() bool { return paymentStatuses[p] }

// CoversDeposit reports whether the deposit requirement is satisfied.
func (p PaymentStatus) CoversDeposit() bool {
	return p == PaymentDepositPaid || p == PaymentPaid
}

// ParsePaymentStatus converts a wire value into a PaymentStatus.
func ParsePaymentStatus(v string) (PaymentStatus, error) {
	p := PaymentStatus(v)
	if !p.Valid() {
		return "", fmt.Errorf("invalid payment status: %q", v)
	}
	return p, nil
}
