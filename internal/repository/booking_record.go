package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// bookingColumns is the column list every booking query selects, in the
// order scanBooking expects.
const bookingColumns = `b.id, b.captain_id, b.trip_type_id, b.vessel_id,
	b.guest_name, b.guest_email, b.guest_phone, b.party_size,
	b.scheduled_start, b.scheduled_end, b.timezone, b.status, b.payment_status,
	b.total_price_cents, b.deposit_paid_cents, b.balance_due_cents,
	b.weather_hold_reason, b.original_start, b.original_end, b.tags,
	b.created_at, b.updated_at`

// bookingRecord mirrors the bookings table with nullable columns kept as
// sql.Null types.  Business logic uses model.Booking; toModel is the only
// place the two shapes meet.
type bookingRecord struct {
	ID                string
	CaptainID         string
	TripTypeID        string
	VesselID          string
	GuestName         string
	GuestEmail        string
	GuestPhone        string
	PartySize         int
	ScheduledStart    time.Time
	ScheduledEnd      time.Time
	Timezone          string
	Status            string
	PaymentStatus     string
	TotalPriceCents   int64
	DepositPaidCents  int64
	BalanceDueCents   int64
	WeatherHoldReason sql.NullString
	OriginalStart     sql.NullTime
	OriginalEnd       sql.NullTime
	Tags              []byte
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (bookingRecord, error) {
	var rec bookingRecord
	err := s.Scan(
		&rec.ID, &rec.CaptainID, &rec.TripTypeID, &rec.VesselID,
		&rec.GuestName, &rec.GuestEmail, &rec.GuestPhone, &rec.PartySize,
		&rec.ScheduledStart, &rec.ScheduledEnd, &rec.Timezone, &rec.Status, &rec.PaymentStatus,
		&rec.TotalPriceCents, &rec.DepositPaidCents, &rec.BalanceDueCents,
		&rec.WeatherHoldReason, &rec.OriginalStart, &rec.OriginalEnd, &rec.Tags,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// toModel converts the record into the strict entity shape.  Unknown enum
// values are treated as corruption rather than passed through.
func (rec bookingRecord) toModel() (model.Booking, error) {
	status, err := model.ParseBookingStatus(rec.Status)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", rec.ID, err)
	}
	pay, err := model.ParsePaymentStatus(rec.PaymentStatus)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", rec.ID, err)
	}
	b := model.Booking{
		ID:               rec.ID,
		CaptainID:        rec.CaptainID,
		TripTypeID:       rec.TripTypeID,
		VesselID:         rec.VesselID,
		GuestName:        rec.GuestName,
		GuestEmail:       rec.GuestEmail,
		GuestPhone:       rec.GuestPhone,
		PartySize:        rec.PartySize,
		ScheduledStart:   rec.ScheduledStart.UTC(),
		ScheduledEnd:     rec.ScheduledEnd.UTC(),
		Timezone:         rec.Timezone,
		Status:           status,
		PaymentStatus:    pay,
		TotalPriceCents:  rec.TotalPriceCents,
		DepositPaidCents: rec.DepositPaidCents,
		BalanceDueCents:  rec.BalanceDueCents,
		Tags:             []string{},
		CreatedAt:        rec.CreatedAt.UTC(),
		UpdatedAt:        rec.UpdatedAt.UTC(),
	}
	if rec.WeatherHoldReason.Valid {
		r := rec.WeatherHoldReason.String
		b.WeatherHoldReason = &r
	}
	if rec.OriginalStart.Valid {
		t := rec.OriginalStart.Time.UTC()
		b.OriginalStart = &t
	}
	if rec.OriginalEnd.Valid {
		t := rec.OriginalEnd.Time.UTC()
		b.OriginalEnd = &t
	}
	if len(rec.Tags) > 0 {
		if err := json.Unmarshal(rec.Tags, &b.Tags); err != nil {
			return model.Booking{}, fmt.Errorf("booking %s: decode tags: %w", rec.ID, err)
		}
		if b.Tags == nil {
			b.Tags = []string{}
		}
	}
	return b, nil
}

// scanBookings drains rows into entities.
func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		rec, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		b, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeTags renders tags for the JSON column; an empty set is stored as [].
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
