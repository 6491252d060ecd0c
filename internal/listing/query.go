// Package listing holds the booking list contract: filters, sort order,
// page-size bounds, the opaque cursor and the page shapes returned to
// dashboards and exports.  The SQL lives in the repository package.
package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SortField is a sortable booking attribute.
type SortField string

const (
	SortScheduledStart SortField = "scheduled_start"
	SortGuestName      SortField = "guest_name"
	SortStatus         SortField = "status"
	SortCreatedAt      SortField = "created_at"
)

func (f SortField) Valid() bool {
	switch f {
	case SortScheduledStart, SortGuestName, SortStatus, SortCreatedAt:
		return true
	}
	return false
}

// IsTime reports whether values of the field are timestamps.
func (f SortField) IsTime() bool { return f == SortScheduledStart || f == SortCreatedAt }

// SortDir is asc or desc.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Mode selects the page shape.
type Mode int

const (
	ModeCursor Mode = iota
	ModeOffset
)

// Query is a booking list request.  CaptainID is required; every other
// filter is optional.  StartDate and EndDate are inclusive local dates.
type Query struct {
	CaptainID         string
	StartDate         string
	EndDate           string
	Statuses          []model.BookingStatus
	PaymentStatuses   []model.PaymentStatus
	Tags              []string
	VesselID          string
	Search            string
	IncludeHistorical bool
	SortField         SortField
	SortDir           SortDir
	Cursor            string
	Page              int
	Limit             int
}

// FieldError reports an invalid query parameter.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Normalize applies defaults and enforces bounds.  The page size is clamped
// to MaxLimit whatever the caller asked for.
func (q *Query) Normalize() error {
	if strings.TrimSpace(q.CaptainID) == "" {
		return fieldErr("captainId", "is required")
	}
	if q.SortField == "" {
		q.SortField = SortScheduledStart
	}
	if !q.SortField.Valid() {
		return fieldErr("sortField", "unsupported sort field %q", q.SortField)
	}
	q.SortDir = SortDir(strings.ToLower(string(q.SortDir)))
	if q.SortDir == "" {
		q.SortDir = Asc
	}
	if q.SortDir != Asc && q.SortDir != Desc {
		return fieldErr("sortDir", "must be asc or desc")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page < 0 {
		return fieldErr("page", "must be 1 or greater")
	}
	if q.Page > 0 && q.Cursor != "" {
		return fieldErr("cursor", "cannot be combined with page")
	}
	for _, s := range q.Statuses {
		if !s.Valid() {
			return fieldErr("status", "unknown status %q", s)
		}
	}
	for _, p := range q.PaymentStatuses {
		if !p.Valid() {
			return fieldErr("paymentStatus", "unknown payment status %q", p)
		}
	}
	for _, d := range []struct{ name, val string }{{"startDate", q.StartDate}, {"endDate", q.EndDate}} {
		if d.val == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, d.val); err != nil {
			return fieldErr(d.name, "must be YYYY-MM-DD")
		}
	}
	if q.StartDate != "" && q.EndDate != "" && q.EndDate < q.StartDate {
		return fieldErr("endDate", "must not be before startDate")
	}
	q.Search = strings.TrimSpace(q.Search)
	return nil
}

// Mode reports whether the query pages by cursor or by page number.
func (q Query) Mode() Mode {
	if q.Page > 0 {
		return ModeOffset
	}
	return ModeCursor
}

// EffectiveStatuses returns the status filter to apply.  With no explicit
// statuses the active set is used unless historical rows were requested, in
// which case nil means "no status filter".
func (q Query) EffectiveStatuses() []model.BookingStatus {
	if len(q.Statuses) > 0 {
		return q.Statuses
	}
	if q.IncludeHistorical {
		return nil
	}
	return model.ActiveStatuses
}

// Resolved is a normalized query with its dates converted to instants in the
// captain's zone and its cursor decoded.
type Resolved struct {
	Query
	From     *time.Time // inclusive
	To       *time.Time // exclusive: midnight after EndDate
	After    *Cursor
	Statuses []model.BookingStatus
}

// Resolve converts the date filters using loc and decodes the cursor.  The
// query must already be normalized.
func (q Query) Resolve(loc *time.Location) (Resolved, error) {
	r := Resolved{Query: q, Statuses: q.EffectiveStatuses()}
	if q.StartDate != "" {
		d, err := time.ParseInLocation(model.DateLayout, q.StartDate, loc)
		if err != nil {
			return r, fieldErr("startDate", "must be YYYY-MM-DD")
		}
		r.From = &d
	}
	if q.EndDate != "" {
		d, err := time.ParseInLocation(model.DateLayout, q.EndDate, loc)
		if err != nil {
			return r, fieldErr("endDate", "must be YYYY-MM-DD")
		}
		next := d.AddDate(0, 0, 1)
		r.To = &next
	}
	if q.Cursor != "" {
		c, err := DecodeCursor(q.Cursor)
		if err != nil {
			return r, fieldErr("cursor", "%v", err)
		}
		if c.Field != q.SortField {
			return r, fieldErr("cursor", "was issued for sort field %q", c.Field)
		}
		r.After = &c
	}
	return r, nil
}

// Offset returns the row offset for offset mode.
func (r Resolved) Offset() int {
	if r.Page <= 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}
