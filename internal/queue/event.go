// Package queue defines the messages exchanged over RabbitMQ and the
// publisher and consumer loops that move them.
package queue

import "time"

// Event types carried in BookingEvent.Type.  The routing key of a
// published event is "booking." + Type.
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
	EventWeatherHold   = "weather_hold"
	EventOffersCreated = "offers_created"
	EventRescheduled   = "rescheduled"
	EventDateRequested = "date_requested"
	EventPayment       = "payment"
)

// BookingEvent describes something that happened to a booking.  It carries
// enough for notification gateways to address the guest and the captain
// without querying the primary database.
type BookingEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	CaptainID      string    `json:"captain_id"`
	GuestName      string    `json:"guest_name"`
	GuestEmail     string    `json:"guest_email,omitempty"`
	GuestPhone     string    `json:"guest_phone,omitempty"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Timezone       string    `json:"timezone"`
	FromStatus     string    `json:"from_status,omitempty"`
	ToStatus       string    `json:"to_status,omitempty"`
	ActorType      string    `json:"actor_type"`
	Description    string    `json:"description"`
	Message        string    `json:"message,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RoutingKey is the topic the event is published under.
func (e BookingEvent) RoutingKey() string { return "booking." + e.Type }

// PaymentEvent is a payment processor result forwarded by the payments
// integration.  DepositPaidCents is nil when the processor did not report
// a deposit amount.
type PaymentEvent struct {
	BookingID        string `json:"booking_id"`
	PaymentStatus    string `json:"payment_status"`
	DepositPaidCents *int64 `json:"deposit_paid_cents,omitempty"`
	Reference        string `json:"reference,omitempty"`
}
