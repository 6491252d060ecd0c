package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/model"
)

// MaxExportRows caps a spreadsheet export.
const MaxExportRows = 1000

// resolveQuery normalizes q and resolves its dates in the captain's zone,
// which it also returns.
func (s *BookingService) resolveQuery(ctx context.Context, q listing.Query) (listing.Resolved, *time.Location, error) {
	if err := q.Normalize(); err != nil {
		return listing.Resolved{}, nil, fieldErr(err)
	}
	_, loc, err := s.avail.profile(ctx, q.CaptainID)
	if err != nil {
		return listing.Resolved{}, nil, err
	}
	r, err := q.Resolve(loc)
	if err != nil {
		return listing.Resolved{}, nil, fieldErr(err)
	}
	return r, loc, nil
}

func fieldErr(err error) error {
	var fe *listing.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return err
}

// ListBookings returns one page of the captain's bookings.  A cursor (or
// neither cursor nor page) selects cursor mode; a page number selects
// offset mode.
func (s *BookingService) ListBookings(ctx context.Context, q listing.Query) (p listing.Page, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.list", trace.WithAttributes(attribute.String("captain.id", q.CaptainID)))
	defer func() { endSpan(span, err) }()

	r, _, err := s.resolveQuery(ctx, q)
	if err != nil {
		return listing.Page{}, err
	}
	rows, total, err := s.bookings.List(ctx, r)
	if err != nil {
		return listing.Page{}, err
	}
	if r.Mode() == listing.ModeOffset {
		return listing.OffsetPage(rows, r.Page, r.Limit, total), nil
	}
	return listing.CursorPage(rows, r.Limit, r.SortField, total), nil
}

var exportHeader = []string{
	"Booking ID", "Status", "Payment", "Start", "End", "Guest", "Email", "Phone",
	"Party", "Vessel", "Total", "Deposit paid", "Balance due", "Tags", "Created",
}

// ExportBookings renders the bookings matching q as an XLSX workbook.  The
// filters and sort are the list's; paging is driven internally and stops at
// MaxExportRows.  It returns the workbook and a suggested file name.
func (s *BookingService) ExportBookings(ctx context.Context, q listing.Query) (buf *bytes.Buffer, filename string, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.export", trace.WithAttributes(attribute.String("captain.id", q.CaptainID)))
	defer func() { endSpan(span, err) }()

	q.Cursor = ""
	q.Page = 1
	q.Limit = listing.MaxLimit
	r, loc, err := s.resolveQuery(ctx, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Bookings"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	_ = f.SetCellStyle(sheet, "A1", last, headerStyle)
	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "D", "E", 18)
	_ = f.SetColWidth(sheet, "F", "H", 24)

	row := 2
	for written := 0; written < MaxExportRows; {
		items, total, err := s.bookings.List(ctx, r)
		if err != nil {
			return nil, "", err
		}
		for _, b := range items {
			if written == MaxExportRows {
				break
			}
			if err := writeExportRow(f, sheet, row, b, loc); err != nil {
				return nil, "", err
			}
			row++
			written++
		}
		if len(items) < r.Limit || r.Page*r.Limit >= total {
			break
		}
		r.Page++
	}
	if row-2 == MaxExportRows {
		s.log.Info("export truncated", zap.String("captain_id", r.CaptainID), zap.Int("rows", MaxExportRows))
	}

	buf = new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.log.Error("export: write workbook failed", zap.Error(err))
		return nil, "", err
	}
	filename = "bookings.xlsx"
	if r.StartDate != "" || r.EndDate != "" {
		filename = fmt.Sprintf("bookings_%s_%s.xlsx", orAll(r.StartDate), orAll(r.EndDate))
	}
	return buf, filename, nil
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func writeExportRow(f *excelize.File, sheet string, row int, b model.Booking, loc *time.Location) error {
	const layout = "2006-01-02 15:04"
	values := []any{
		b.ID, string(b.Status), string(b.PaymentStatus),
		b.ScheduledStart.In(loc).Format(layout), b.ScheduledEnd.In(loc).Format(layout),
		b.GuestName, b.GuestEmail, b.GuestPhone, b.PartySize, b.VesselID,
		cents(b.TotalPriceCents), cents(b.DepositPaidCents), cents(b.BalanceDueCents),
		strings.Join(b.Tags, ", "), b.CreatedAt.In(loc).Format(layout),
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func cents(v int64) float64 { return float64(v) / 100 }
