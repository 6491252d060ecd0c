package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/charter-booking/internal/model"
)

// LogRepo appends to and reads booking_logs.  It never updates or deletes.
type LogRepo struct {
	db *sql.DB
}

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// Append inserts one entry.  CreatedAt is assigned by the database when
// zero.
func (r *LogRepo) Append(ctx context.Context, e *model.BookingLog) error {
	if e.CreatedAt.IsZero() {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO booking_logs (id, booking_id, entry_type, description, old_value, new_value, actor_type, actor_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.BookingID, string(e.EntryType), e.Description, nullJSON(e.OldValue), nullJSON(e.NewValue),
			string(e.ActorType), nullString(e.ActorID))
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO booking_logs (id, booking_id, entry_type, description, old_value, new_value, actor_type, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BookingID, string(e.EntryType), e.Description, nullJSON(e.OldValue), nullJSON(e.NewValue),
		string(e.ActorType), nullString(e.ActorID), e.CreatedAt.UTC())
	return err
}

// ListByBooking returns the booking's history, oldest first.
func (r *LogRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.BookingLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, entry_type, description, old_value, new_value, actor_type, actor_id, created_at
		 FROM booking_logs WHERE booking_id = ? ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingLog{}
	for rows.Next() {
		var (
			e       model.BookingLog
			entry   string
			actor   string
			oldV    []byte
			newV    []byte
			actorID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &entry, &e.Description, &oldV, &newV, &actor, &actorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EntryType = model.LogEntryType(entry)
		e.ActorType = model.ActorType(actor)
		if len(oldV) > 0 {
			e.OldValue = oldV
		}
		if len(newV) > 0 {
			e.NewValue = newV
		}
		if actorID.Valid {
			id := actorID.String
			e.ActorID = &id
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
