package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo resolves guest management tokens (single 'token_hash' column).
// Tokens are inserted by BookingRepo.CreateIfFree together with their
// booking.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Resolve returns the booking id for a non-revoked, non-expired token hash.
// Unknown, expired and revoked tokens all return ErrNotFound.
func (r *TokenRepo) Resolve(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var (
		bookingID string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT booking_id, expires_at, revoked_at FROM booking_access_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&bookingID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if revokedAt.Valid || !now.UTC().Before(expiresAt) {
		return "", ErrNotFound
	}
	return bookingID, nil
}
