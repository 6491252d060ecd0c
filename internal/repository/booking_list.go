package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/model"
)

// sortColumns maps list sort fields to SQL expressions.  status is an ENUM,
// which MySQL orders by declaration index; casting keeps ORDER BY and the
// cursor comparison on the same string ordering.
var sortColumns = map[listing.SortField]string{
	listing.SortScheduledStart: "b.scheduled_start",
	listing.SortGuestName:      "b.guest_name",
	listing.SortStatus:         "CAST(b.status AS CHAR)",
	listing.SortCreatedAt:      "b.created_at",
}

// listSQL is the filter, cursor and ordering clauses of a list query.
type listSQL struct {
	where      []string
	args       []any
	cursorCond string
	cursorArgs []any
	orderBy    string
}

func (l listSQL) whereClause(withCursor bool) (string, []any) {
	conds := append([]string(nil), l.where...)
	args := append([]any(nil), l.args...)
	if withCursor && l.cursorCond != "" {
		conds = append(conds, l.cursorCond)
		args = append(args, l.cursorArgs...)
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// buildListSQL turns a resolved query into SQL fragments.  The record id is
// always the ascending secondary key so the ordering is total.
func buildListSQL(q listing.Resolved) (listSQL, error) {
	col, ok := sortColumns[q.SortField]
	if !ok {
		return listSQL{}, fmt.Errorf("unsupported sort field %q", q.SortField)
	}
	l := listSQL{where: []string{"b.captain_id = ?"}, args: []any{q.CaptainID}}

	if q.From != nil {
		l.where = append(l.where, "b.scheduled_start >= ?")
		l.args = append(l.args, q.From.UTC())
	}
	if q.To != nil {
		l.where = append(l.where, "b.scheduled_start < ?")
		l.args = append(l.args, q.To.UTC())
	}
	if len(q.Statuses) > 0 {
		l.where = append(l.where, "b.status IN ("+placeholders(len(q.Statuses))+")")
		for _, s := range q.Statuses {
			l.args = append(l.args, string(s))
		}
	}
	if len(q.PaymentStatuses) > 0 {
		l.where = append(l.where, "b.payment_status IN ("+placeholders(len(q.PaymentStatuses))+")")
		for _, p := range q.PaymentStatuses {
			l.args = append(l.args, string(p))
		}
	}
	if len(q.Tags) > 0 {
		tags, err := json.Marshal(q.Tags)
		if err != nil {
			return listSQL{}, err
		}
		l.where = append(l.where, "JSON_OVERLAPS(COALESCE(b.tags, JSON_ARRAY()), CAST(? AS JSON))")
		l.args = append(l.args, string(tags))
	}
	if q.VesselID != "" {
		l.where = append(l.where, "b.vessel_id = ?")
		l.args = append(l.args, q.VesselID)
	}
	if q.Search != "" {
		like := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		l.where = append(l.where, "(LOWER(b.guest_name) LIKE ? OR LOWER(b.guest_email) LIKE ? OR LOWER(b.guest_phone) LIKE ?)")
		l.args = append(l.args, like, like, like)
	}

	op := ">"
	dir := "ASC"
	if q.SortDir == listing.Desc {
		op = "<"
		dir = "DESC"
	}
	if q.After != nil {
		var v any = q.After.Value
		if q.SortField.IsTime() {
			t, err := q.After.Time()
			if err != nil {
				return listSQL{}, err
			}
			v = t.UTC()
		}
		if q.After.ID != "" {
			l.cursorCond = fmt.Sprintf("(%s %s ? OR (%s = ? AND b.id > ?))", col, op, col)
			l.cursorArgs = []any{v, v, q.After.ID}
		} else {
			l.cursorCond = fmt.Sprintf("%s %s ?", col, op)
			l.cursorArgs = []any{v}
		}
	}
	l.orderBy = fmt.Sprintf("%s %s, b.id ASC", col, dir)
	return l, nil
}

// List returns one page of the captain's bookings and the total number of
// rows matching the filters.  Cursor mode fetches limit+1 rows so the
// caller can tell whether another page exists.
func (r *BookingRepo) List(ctx context.Context, q listing.Resolved) ([]model.Booking, int, error) {
	l, err := buildListSQL(q)
	if err != nil {
		return nil, 0, err
	}

	countWhere, countArgs := l.whereClause(false)
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings b WHERE `+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	var (
		where string
		args  []any
		tail  string
	)
	if q.Mode() == listing.ModeOffset {
		where, args = l.whereClause(false)
		tail = ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset())
	} else {
		where, args = l.whereClause(true)
		tail = ` LIMIT ?`
		args = append(args, q.Limit+1)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE `+where+` ORDER BY `+l.orderBy+tail, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
