package model

import "time"

// RescheduleOffer is an alternative slot a captain proposes for a booking on
// weather hold.  VesselID is nil when the offer keeps the booking's vessel.
type RescheduleOffer struct {
	ID            string     `json:"id"`
	BookingID     string     `json:"booking_id"`
	VesselID      *string    `json:"vessel_id,omitempty"`
	ProposedStart time.Time  `json:"proposed_start"`
	ProposedEnd   time.Time  `json:"proposed_end"`
	IsSelected    bool       `json:"is_selected"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	SupersededAt  *time.Time `json:"superseded_at,omitempty"` // set when the booking goes on hold again
	CreatedAt     time.Time  `json:"created_at"`
}

// Current reports whether the offer belongs to the booking's latest weather
// hold.
func (o RescheduleOffer) Current() bool { return o.SupersededAt == nil }

// Expired reports whether the offer can no longer be selected at now.
func (o RescheduleOffer) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

// TargetVessel returns the vessel the booking moves to if the offer is taken.
func (o RescheduleOffer) TargetVessel(current string) string {
	if o.VesselID != nil && *o.VesselID != "" {
		return *o.VesselID
	}
	return current
}
