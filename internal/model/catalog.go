package model

import (
	"fmt"
	"time"
)

// CaptainProfile holds the settings the booking engine reads from a
// captain's profile.
type CaptainProfile struct {
	ID                 string `json:"id"`
	DisplayName        string `json:"display_name"`
	Timezone           string `json:"timezone"`             // IANA zone, e.g. America/New_York
	BufferMinutes      int    `json:"buffer_minutes"`       // turnaround between trips on one vessel
	DepositWindowHours *int   `json:"deposit_window_hours"` // nil falls back to the service default
}

// Location resolves the profile's IANA zone.
func (p CaptainProfile) Location() (*time.Location, error) {
	name := p.Timezone
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("captain %s has invalid timezone %q: %w", p.ID, p.Timezone, err)
	}
	return loc, nil
}

// Buffer is the turnaround time as a duration.
func (p CaptainProfile) Buffer() time.Duration {
	if p.BufferMinutes <= 0 {
		return 0
	}
	return time.Duration(p.BufferMinutes) * time.Minute
}

// Vessel is a boat; it is the unit of double-booking exclusivity.
type Vessel struct {
	ID        string `json:"id"`
	CaptainID string `json:"captain_id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	IsActive  bool   `json:"is_active"`
}

// TripType is a bookable offering.  A non-zero DepositCents means new
// bookings start in pending_deposit.
type TripType struct {
	ID              string `json:"id"`
	CaptainID       string `json:"captain_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	DepositCents    int64  `json:"deposit_cents"`
	IsActive        bool   `json:"is_active"`
}

// RequiresDeposit reports whether bookings must wait for a deposit.
func (t TripType) RequiresDeposit() bool { return t.DepositCents > 0 }

// Duration is the default trip length.
func (t TripType) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}
