package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/charter-booking/internal/availability"
	"github.com/iliyamo/charter-booking/internal/model"
)

// AvailabilityRepo stores captains' weekly windows and blackout dates.
type AvailabilityRepo struct {
	db *sql.DB
}

func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// Windows returns every window of the captain, active or not, ordered by
// day and start time.
func (r *AvailabilityRepo) Windows(ctx context.Context, captainID string) ([]model.AvailabilityWindow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, day_of_week, start_time, end_time, is_active
		 FROM availability_windows WHERE owner_id = ? ORDER BY day_of_week, start_time`, captainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AvailabilityWindow{}
	for rows.Next() {
		var (
			w          model.AvailabilityWindow
			start, end string
		)
		if err := rows.Scan(&w.ID, &w.CaptainID, &w.DayOfWeek, &start, &end, &w.IsActive); err != nil {
			return nil, err
		}
		// TIME columns arrive as "HH:MM:SS" strings.
		if w.StartTime, err = model.ParseClock(start); err != nil {
			return nil, fmt.Errorf("window %s: %w", w.ID, err)
		}
		if w.EndTime, err = model.ParseClock(end); err != nil {
			return nil, fmt.Errorf("window %s: %w", w.ID, err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ReplaceWindows swaps the captain's whole weekly schedule in one
// transaction.
func (r *AvailabilityRepo) ReplaceWindows(ctx context.Context, captainID string, windows []model.AvailabilityWindow) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM availability_windows WHERE owner_id = ?`, captainID); err != nil {
			return err
		}
		for _, w := range windows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO availability_windows (id, owner_id, day_of_week, start_time, end_time, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
				w.ID, captainID, w.DayOfWeek, w.StartTime.SQL(), w.EndTime.SQL(), w.IsActive); err != nil {
				return err
			}
		}
		return nil
	})
}

// Blackouts returns the captain's blackout dates, optionally limited to the
// inclusive range [from, to].  Empty bounds are open.
func (r *AvailabilityRepo) Blackouts(ctx context.Context, captainID, from, to string) ([]model.BlackoutDate, error) {
	query := `SELECT id, owner_id, date, reason FROM blackout_dates WHERE owner_id = ?`
	args := []any{captainID}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BlackoutDate{}
	for rows.Next() {
		var (
			b      model.BlackoutDate
			date   time.Time
			reason sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.CaptainID, &date, &reason); err != nil {
			return nil, err
		}
		b.Date = date.Format(model.DateLayout)
		if reason.Valid {
			s := reason.String
			b.Reason = &s
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Rules loads what availability.Check needs for a proposal starting on the
// local date: all windows plus the blackout for that date, if any.
func (r *AvailabilityRepo) Rules(ctx context.Context, captainID, localDate string) (availability.Rules, error) {
	windows, err := r.Windows(ctx, captainID)
	if err != nil {
		return availability.Rules{}, err
	}
	blackouts, err := r.Blackouts(ctx, captainID, localDate, localDate)
	if err != nil {
		return availability.Rules{}, err
	}
	return availability.Rules{Windows: windows, Blackouts: blackouts}, nil
}

// AddBlackout inserts a blackout date.  A second blackout on the same date
// returns ErrConflict.
func (r *AvailabilityRepo) AddBlackout(ctx context.Context, b *model.BlackoutDate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blackout_dates (id, owner_id, date, reason) VALUES (?, ?, ?, ?)`,
		b.ID, b.CaptainID, b.Date, nullString(b.Reason))
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// DeleteBlackout removes one of the captain's blackout dates.  It returns
// ErrNotFound when the id does not exist and ErrForbidden when it belongs
// to another captain.
func (r *AvailabilityRepo) DeleteBlackout(ctx context.Context, captainID, id string) error {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM blackout_dates WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != captainID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM blackout_dates WHERE id = ? AND owner_id = ?`, id, captainID)
	return err
}
