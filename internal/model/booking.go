package model

import "time"

// Booking is a guest's reservation of a vessel for a trip.  It is the
// aggregate root: offers and log entries hang off it and it is never
// deleted, only moved to a terminal status.
//
// Invariants:
//   - ScheduledEnd is after ScheduledStart.
//   - PartySize is between 1 and the vessel capacity.
//   - Once Status is terminal only the payment fields change.
//
// Monetary fields are integer minor currency units (cents).
type Booking struct {
	ID                string        `json:"id"`                            // bookings.id
	CaptainID         string        `json:"captain_id"`                    // bookings.captain_id
	TripTypeID        string        `json:"trip_type_id"`                  // bookings.trip_type_id
	VesselID          string        `json:"vessel_id"`                     // bookings.vessel_id
	GuestName         string        `json:"guest_name"`                    // bookings.guest_name
	GuestEmail        string        `json:"guest_email,omitempty"`         // bookings.guest_email
	GuestPhone        string        `json:"guest_phone,omitempty"`         // bookings.guest_phone
	PartySize         int           `json:"party_size"`                    // bookings.party_size
	ScheduledStart    time.Time     `json:"scheduled_start"`               // bookings.scheduled_start (UTC)
	ScheduledEnd      time.Time     `json:"scheduled_end"`                 // bookings.scheduled_end (UTC)
	Timezone          string        `json:"timezone"`                      // captain zone the schedule was booked in
	Status            BookingStatus `json:"status"`                        // bookings.status
	PaymentStatus     PaymentStatus `json:"payment_status"`                // bookings.payment_status
	TotalPriceCents   int64         `json:"total_price_cents"`             // bookings.total_price_cents
	DepositPaidCents  int64         `json:"deposit_paid_cents"`            // bookings.deposit_paid_cents
	BalanceDueCents   int64         `json:"balance_due_cents"`             // bookings.balance_due_cents
	WeatherHoldReason *string       `json:"weather_hold_reason,omitempty"` // bookings.weather_hold_reason (nullable)
	OriginalStart     *time.Time    `json:"original_start,omitempty"`      // set on the first reschedule
	OriginalEnd       *time.Time    `json:"original_end,omitempty"`        // set on the first reschedule
	Tags              []string      `json:"tags"`                          // bookings.tags (JSON array)
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Overlaps reports whether the booking's half-open interval
// [ScheduledStart, ScheduledEnd) intersects [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return Overlaps(b.ScheduledStart, b.ScheduledEnd, start, end)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.  Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Duration is the scheduled length of the trip.
func (b Booking) Duration() time.Duration { return b.ScheduledEnd.Sub(b.ScheduledStart) }

// HasBeenRescheduled reports whether the schedule was ever moved.
func (b Booking) HasBeenRescheduled() bool { return b.OriginalStart != nil }

// BalanceFor returns the balance owed for the given payment state.  A fully
// paid booking owes nothing; otherwise the balance is the total minus what
// has been paid, floored at zero.
func BalanceFor(total, depositPaid int64, ps PaymentStatus) int64 {
	if ps == PaymentPaid {
		return 0
	}
	if bal := total - depositPaid; bal > 0 {
		return bal
	}
	return 0
}
