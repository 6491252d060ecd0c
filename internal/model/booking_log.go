package model

import (
	"encoding/json"
	"time"
)

// LogEntryType classifies a booking history entry.
type LogEntryType string

const (
	LogCreation      LogEntryType = "creation"
	LogStatusChange  LogEntryType = "status_change"
	LogPayment       LogEntryType = "payment"
	LogWeatherHold   LogEntryType = "weather_hold"
	LogOffer         LogEntryType = "reschedule_offer"
	LogReschedule    LogEntryType = "reschedule"
	LogDateRequest   LogEntryType = "date_request"
	LogNote          LogEntryType = "note"
	LogCommunication LogEntryType = "communication"
)

// ActorType identifies who performed a change.
type ActorType string

const (
	ActorCaptain ActorType = "captain"
	ActorGuest   ActorType = "guest"
	ActorSystem  ActorType = "system"
)

// Actor is the party responsible for a mutation.
type Actor struct {
	Type ActorType
	ID   *string
}

func CaptainActor(id string) Actor { return Actor{Type: ActorCaptain, ID: &id} }

// GuestActor identifies a guest acting through a management link.  Guests
// have no account, so the booking id stands in for the actor id.
func GuestActor(bookingID string) Actor { return Actor{Type: ActorGuest, ID: &bookingID} }

func SystemActor() Actor { return Actor{Type: ActorSystem} }

// BookingLog is an append-only history entry.  Rows are never updated or
// deleted.
type BookingLog struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"booking_id"`
	EntryType   LogEntryType    `json:"entry_type"`
	Description string          `json:"description"`
	OldValue    json.RawMessage `json:"old_value,omitempty"`
	NewValue    json.RawMessage `json:"new_value,omitempty"`
	ActorType   ActorType       `json:"actor_type"`
	ActorID     *string         `json:"actor_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
