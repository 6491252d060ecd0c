package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// BookingRepo provides access to the bookings table.  Every write that
// touches the schedule runs in a transaction that locks the vessel row, so
// two writers can never both see a slot as free.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// AccessToken is the stored half of a guest management link.  Only the
// SHA-256 hash of the token ever reaches the database.
type AccessToken struct {
	Hash      string
	ExpiresAt time.Time
}

// ConflictQuery describes the slot to check.  Buffer widens the slot on
// both sides; zero gives plain half-open overlap.
type ConflictQuery struct {
	VesselID  string
	Start     time.Time
	End       time.Time
	ExcludeID string
	Buffer    time.Duration
}

// GetByID returns the booking with the given id or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return getBooking(ctx, r.db, id, false)
}

// GetForCaptain returns the booking when it belongs to captainID.  It
// returns ErrNotFound when the booking does not exist and ErrForbidden when
// it belongs to someone else.
func (r *BookingRepo) GetForCaptain(ctx context.Context, captainID, id string) (*model.Booking, error) {
	b, err := getBooking(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	if b.CaptainID != captainID {
		return nil, ErrForbidden
	}
	return b, nil
}

func getBooking(ctx context.Context, q querier, id string, lock bool) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	rec, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindConflicts returns the active bookings on the vessel whose interval
// overlaps the query window.  An empty result means the slot is free.
func (r *BookingRepo) FindConflicts(ctx context.Context, cq ConflictQuery) ([]model.Booking, error) {
	return findConflicts(ctx, r.db, cq)
}

func findConflicts(ctx context.Context, q querier, cq ConflictQuery) ([]model.Booking, error) {
	start := cq.Start.Add(-cq.Buffer).UTC()
	end := cq.End.Add(cq.Buffer).UTC()
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.vessel_id = ?
		  AND b.status IN (` + placeholders(len(model.ActiveStatuses)) + `)
		  AND b.scheduled_start < ?
		  AND b.scheduled_end > ?`
	args := []any{cq.VesselID}
	for _, s := range model.ActiveStatuses {
		args = append(args, string(s))
	}
	args = append(args, end, start)
	if cq.ExcludeID != "" {
		query += ` AND b.id <> ?`
		args = append(args, cq.ExcludeID)
	}
	query += ` ORDER BY b.scheduled_start, b.id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// lockVessel takes a row lock on the vessel for the rest of the
// transaction.  Concurrent schedule writers for the same vessel queue here.
func lockVessel(ctx context.Context, tx *sql.Tx, vesselID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM vessels WHERE id = ? FOR UPDATE`, vesselID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// CreateIfFree inserts the booking and its access token in one transaction
// after verifying, under the vessel lock, that the slot is free.  When the
// slot is taken it returns the conflicting bookings and ErrConflict and
// inserts nothing.  CreatedAt and UpdatedAt are filled from the database.
func (r *BookingRepo) CreateIfFree(ctx context.Context, b *model.Booking, tok AccessToken, buffer time.Duration) ([]model.Booking, error) {
	var conflicts []model.Booking
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockVessel(ctx, tx, b.VesselID); err != nil {
			return err
		}
		found, err := findConflicts(ctx, tx, ConflictQuery{
			VesselID: b.VesselID, Start: b.ScheduledStart, End: b.ScheduledEnd, Buffer: buffer,
		})
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return ErrConflict
		}
		tags, err := encodeTags(b.Tags)
		if err != nil {
			return err
		}
		const ins = `INSERT INTO bookings (id, captain_id, trip_type_id, vessel_id,
			guest_name, guest_email, guest_phone, party_size,
			scheduled_start, scheduled_end, timezone, status, payment_status,
			total_price_cents, deposit_paid_cents, balance_due_cents, weather_hold_reason, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, ins,
			b.ID, b.CaptainID, b.TripTypeID, b.VesselID,
			b.GuestName, b.GuestEmail, b.GuestPhone, b.PartySize,
			b.ScheduledStart.UTC(), b.ScheduledEnd.UTC(), b.Timezone, string(b.Status), string(b.PaymentStatus),
			b.TotalPriceCents, b.DepositPaidCents, b.BalanceDueCents, nullString(b.WeatherHoldReason), tags,
		); err != nil {
			return err
		}
		if tok.Hash != "" {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO booking_access_tokens (token_hash, booking_id, expires_at) VALUES (?, ?, ?)`,
				tok.Hash, b.ID, tok.ExpiresAt.UTC()); err != nil {
				return err
			}
		}
		created, err := getBooking(ctx, tx, b.ID, false)
		if err != nil {
			return err
		}
		*b = *created
		return nil
	})
	return conflicts, err
}

// UpdateStatus moves the booking from one status to another as a
// compare-and-swap on the current status.  It returns ErrStaleWrite when
// the stored status is no longer from.  holdReason is written only when
// the booking enters weather_hold; that write also supersedes the offers of
// any earlier hold in the same transaction.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, holdReason *string) error {
	if to != model.StatusWeatherHold {
		res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
			string(to), id, string(from))
		if err != nil {
			return err
		}
		return casResult(ctx, r.db, res, id)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, weather_hold_reason = ? WHERE id = ? AND status = ?`,
			string(to), nullString(holdReason), id, string(from))
		if err != nil {
			return err
		}
		if err := casResult(ctx, tx, res, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE reschedule_offers SET superseded_at = UTC_TIMESTAMP(6) WHERE booking_id = ? AND superseded_at IS NULL`, id)
		return err
	})
}

// casResult distinguishes a missing row from a lost compare-and-swap.
func casResult(ctx context.Context, q querier, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = q.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStaleWrite
}

// Reschedule describes a move of a booking to a new vessel and time.  The
// write is conditioned on the booking still being in FromStatus.
//
// When OfferID is set the offer is marked selected in the same
// transaction.  Only offers of the current hold count: selection fails
// with ErrOfferNotFound for a superseded offer, with ErrOfferTaken if
// another current offer is already selected and with ErrOfferExpired if
// the offer has expired at Now.
type Reschedule struct {
	BookingID  string
	FromStatus model.BookingStatus
	ToStatus   model.BookingStatus
	VesselID   string
	Start      time.Time
	End        time.Time
	Buffer     time.Duration
	OfferID    string
	Now        time.Time
}

// Reschedule applies m.  The booking row and the target vessel are locked
// and the slot is checked for conflicts excluding the booking itself; on a
// conflicting slot it returns the conflicts and ErrConflict without writing
// anything.  The first move copies the current schedule into
// original_start/original_end.
func (r *BookingRepo) Reschedule(ctx context.Context, m Reschedule) ([]model.Booking, error) {
	var conflicts []model.Booking
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := getBooking(ctx, tx, m.BookingID, true)
		if err != nil {
			return err
		}
		if cur.Status != m.FromStatus {
			return ErrStaleWrite
		}
		if m.OfferID != "" {
			if err := checkOfferSelectable(ctx, tx, m.BookingID, m.OfferID, m.Now); err != nil {
				return err
			}
		}
		if err := lockVessel(ctx, tx, m.VesselID); err != nil {
			return err
		}
		found, err := findConflicts(ctx, tx, ConflictQuery{
			VesselID: m.VesselID, Start: m.Start, End: m.End, ExcludeID: m.BookingID, Buffer: m.Buffer,
		})
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return ErrConflict
		}
		if m.OfferID != "" {
			res, err := tx.ExecContext(ctx,
				`UPDATE reschedule_offers SET is_selected = 1
				WHERE id = ? AND booking_id = ? AND is_selected = 0 AND superseded_at IS NULL`,
				m.OfferID, m.BookingID)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return ErrOfferTaken
			}
		}
		// original_* must be assigned before scheduled_*: MySQL evaluates
		// single-table SET clauses left to right.
		const upd = `UPDATE bookings SET
			original_start = COALESCE(original_start, scheduled_start),
			original_end = COALESCE(original_end, scheduled_end),
			vessel_id = ?, scheduled_start = ?, scheduled_end = ?, status = ?
			WHERE id = ? AND status = ?`
		res, err := tx.ExecContext(ctx, upd,
			m.VesselID, m.Start.UTC(), m.End.UTC(), string(m.ToStatus), m.BookingID, string(m.FromStatus))
		if err != nil {
			return err
		}
		return casResult(ctx, tx, res, m.BookingID)
	})
	return conflicts, err
}

func checkOfferSelectable(ctx context.Context, tx *sql.Tx, bookingID, offerID string, now time.Time) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, is_selected, expires_at FROM reschedule_offers
		 WHERE booking_id = ? AND superseded_at IS NULL FOR UPDATE`, bookingID)
	if err != nil {
		return err
	}
	defer rows.Close()
	var (
		found     bool
		expiresAt sql.NullTime
		taken     bool
	)
	for rows.Next() {
		var (
			id  string
			sel bool
			exp sql.NullTime
		)
		if err := rows.Scan(&id, &sel, &exp); err != nil {
			return err
		}
		if sel {
			taken = true
		}
		if id == offerID {
			found = true
			expiresAt = exp
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	switch {
	case !found:
		return ErrOfferNotFound
	case taken:
		return ErrOfferTaken
	case expiresAt.Valid && !now.Before(expiresAt.Time):
		return ErrOfferExpired
	}
	return nil
}

// PaymentUpdate carries reconciled payment fields.
type PaymentUpdate struct {
	BookingID        string
	PaymentStatus    model.PaymentStatus
	DepositPaidCents int64
	BalanceDueCents  int64
}

// UpdatePayment writes the payment fields.  Payment reconciliation is
// allowed in every status, terminal ones included.
func (r *BookingRepo) UpdatePayment(ctx context.Context, p PaymentUpdate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, deposit_paid_cents = ?, balance_due_cents = ? WHERE id = ?`,
		string(p.PaymentStatus), p.DepositPaidCents, p.BalanceDueCents, p.BookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when nothing changed.
		if _, err := r.GetByID(ctx, p.BookingID); err != nil {
			return err
		}
	}
	return nil
}

// ListStaleDeposits returns pending_deposit bookings created more than
// their captain's deposit window before now.  Captains without a
// configured window use defaultWindow.
func (r *BookingRepo) ListStaleDeposits(ctx context.Context, now time.Time, defaultWindow time.Duration, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN captain_profiles p ON p.id = b.captain_id
		WHERE b.status = ?
		  AND b.created_at < DATE_SUB(?, INTERVAL COALESCE(p.deposit_window_hours, ?) HOUR)
		ORDER BY b.created_at, b.id
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query,
		string(model.StatusPendingDeposit), now.UTC(), int(defaultWindow/time.Hour), limit)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
