// Package repository holds the MySQL data access for bookings and the
// captain data they depend on.  The sentinel errors below let the service
// and handler layers tell failure scenarios apart without inspecting
// driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another captain.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would violate exclusivity, such as
// an overlapping booking on the same vessel or a duplicate blackout date.
var ErrConflict = errors.New("conflict")

// ErrStaleWrite is returned by compare-and-swap updates when the row no
// longer has the status the caller read.
var ErrStaleWrite = errors.New("stale write")

// ErrOfferNotFound, ErrOfferExpired and ErrOfferTaken are the reschedule
// offer selection failures.  None of them leaves a partial mutation.
var (
	ErrOfferNotFound = errors.New("reschedule offer not found")
	ErrOfferExpired  = errors.New("reschedule offer has expired")
	ErrOfferTaken    = errors.New("another reschedule offer is already selected")
)

// querier is satisfied by *sql.DB and *sql.Tx so helpers can run inside or
// outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
