package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/charter-booking/internal/model"
)

// OfferRepo stores reschedule offers.  Selection happens in
// BookingRepo.Reschedule so the offer flag and the booking schedule change
// in one transaction.
type OfferRepo struct {
	db *sql.DB
}

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{db: db} }

const offerColumns = `id, booking_id, vessel_id, proposed_start, proposed_end, is_selected, expires_at, superseded_at, created_at`

func scanOffer(s rowScanner) (model.RescheduleOffer, error) {
	var (
		o          model.RescheduleOffer
		vessel     sql.NullString
		expires    sql.NullTime
		superseded sql.NullTime
	)
	if err := s.Scan(&o.ID, &o.BookingID, &vessel, &o.ProposedStart, &o.ProposedEnd, &o.IsSelected, &expires, &superseded, &o.CreatedAt); err != nil {
		return o, err
	}
	o.ProposedStart = o.ProposedStart.UTC()
	o.ProposedEnd = o.ProposedEnd.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	if vessel.Valid {
		v := vessel.String
		o.VesselID = &v
	}
	if expires.Valid {
		t := expires.Time.UTC()
		o.ExpiresAt = &t
	}
	if superseded.Valid {
		t := superseded.Time.UTC()
		o.SupersededAt = &t
	}
	return o, nil
}

// CreateBulk inserts offers in a single statement.  Passing an empty slice
// has no effect and returns nil.
func (r *OfferRepo) CreateBulk(ctx context.Context, offers []model.RescheduleOffer) error {
	if len(offers) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO reschedule_offers (id, booking_id, vessel_id, proposed_start, proposed_end, expires_at) VALUES `)
	args := make([]any, 0, len(offers)*6)
	for i, o := range offers {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, o.ID, o.BookingID, nullString(o.VesselID), o.ProposedStart.UTC(), o.ProposedEnd.UTC(), nullTime(o.ExpiresAt))
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByBooking returns every offer of the booking, superseded ones
// included, earliest proposal first.
func (r *OfferRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.RescheduleOffer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM reschedule_offers WHERE booking_id = ? ORDER BY proposed_start, id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RescheduleOffer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
