package listing

import "github.com/iliyamo/charter-booking/internal/model"

// Page is one page of bookings.  Cursor-mode pages carry NextCursor;
// offset-mode pages carry Page, PageSize and TotalPages.
type Page struct {
	Mode       Mode
	Items      []model.Booking
	NextCursor string
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// CursorPage trims rows fetched with limit+1 down to limit and sets the
// next cursor when the extra row proved that another page exists.
func CursorPage(rows []model.Booking, limit int, field SortField, total int) Page {
	p := Page{Mode: ModeCursor, TotalCount: total, PageSize: limit}
	if len(rows) > limit {
		rows = rows[:limit]
		p.NextCursor = EncodeCursor(CursorAfter(rows[len(rows)-1], field))
	}
	if rows == nil {
		rows = []model.Booking{}
	}
	p.Items = rows
	return p
}

// OffsetPage wraps rows fetched with LIMIT/OFFSET.
func OffsetPage(rows []model.Booking, page, size, total int) Page {
	if rows == nil {
		rows = []model.Booking{}
	}
	return Page{
		Mode:       ModeOffset,
		Items:      rows,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: TotalPages(total, size),
	}
}

// TotalPages is ceil(total/size), zero when there are no rows.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
