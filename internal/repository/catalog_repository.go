package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/charter-booking/internal/model"
)

// CatalogRepo reads the captain-owned data a booking references: the
// captain profile, vessels and trip types.  Those records are managed
// elsewhere; the booking engine only reads them.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// Profile returns the captain profile or ErrNotFound.
func (r *CatalogRepo) Profile(ctx context.Context, captainID string) (*model.CaptainProfile, error) {
	var (
		p      model.CaptainProfile
		window sql.NullInt32
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, timezone, buffer_minutes, deposit_window_hours FROM captain_profiles WHERE id = ?`,
		captainID).Scan(&p.ID, &p.DisplayName, &p.Timezone, &p.BufferMinutes, &window)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if window.Valid {
		h := int(window.Int32)
		p.DepositWindowHours = &h
	}
	return &p, nil
}

// Vessel returns the vessel or ErrNotFound.
func (r *CatalogRepo) Vessel(ctx context.Context, id string) (*model.Vessel, error) {
	var v model.Vessel
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, capacity, is_active FROM vessels WHERE id = ?`, id).
		Scan(&v.ID, &v.CaptainID, &v.Name, &v.Capacity, &v.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// TripType returns the trip type or ErrNotFound.
func (r *CatalogRepo) TripType(ctx context.Context, id string) (*model.TripType, error) {
	var t model.TripType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, duration_minutes, price_cents, deposit_cents, is_active FROM trip_types WHERE id = ?`, id).
		Scan(&t.ID, &t.CaptainID, &t.Name, &t.DurationMinutes, &t.PriceCents, &t.DepositCents, &t.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
