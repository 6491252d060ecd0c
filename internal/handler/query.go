package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// multi collects a list parameter given either repeated (?status=a&status=b)
// or comma separated (?status=a,b).
func multi(c echo.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func intParam(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Message: "must be a whole number"}
	}
	return n, nil
}

// parseListQuery reads the booking list parameters.  Values are checked
// later by listing.Query.Normalize; only type errors are reported here.
func parseListQuery(c echo.Context, captainID string) (listing.Query, error) {
	q := listing.Query{
		CaptainID: captainID,
		Tags:      multi(c, "tags"),
		VesselID:  c.QueryParam("vesselId"),
		Search:    c.QueryParam("search"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		SortField: listing.SortField(c.QueryParam("sortField")),
		SortDir:   listing.SortDir(c.QueryParam("sortDir")),
		Cursor:    c.QueryParam("cursor"),
	}
	for _, s := range multi(c, "status") {
		q.Statuses = append(q.Statuses, model.BookingStatus(strings.ToLower(s)))
	}
	for _, p := range multi(c, "paymentStatus") {
		q.PaymentStatuses = append(q.PaymentStatuses, model.PaymentStatus(strings.ToLower(p)))
	}
	var err error
	if q.Page, err = intParam(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(c, "limit"); err != nil {
		return q, err
	}
	if v := c.QueryParam("includeHistorical"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return q, &service.ValidationError{Field: "includeHistorical", Message: "must be true or false"}
		}
		q.IncludeHistorical = b
	}
	return q, nil
}

type cursorPage struct {
	Items      []model.Booking `json:"items"`
	NextCursor *string         `json:"next_cursor"`
	TotalCount int             `json:"total_count"`
}

type offsetPage struct {
	Items      []model.Booking `json:"items"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// pageBody shapes a listing.Page for JSON.  A missing next cursor is
// rendered as null.
func pageBody(p listing.Page) any {
	if p.Mode == listing.ModeOffset {
		return offsetPage{Items: p.Items, TotalCount: p.TotalCount, Page: p.Page, PageSize: p.PageSize, TotalPages: p.TotalPages}
	}
	out := cursorPage{Items: p.Items, TotalCount: p.TotalCount}
	if p.NextCursor != "" {
		next := p.NextCursor
		out.NextCursor = &next
	}
	return out
}
