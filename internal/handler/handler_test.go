package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/availability"
	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/service"
)

type stubCreator struct {
	got service.CreateBookingInput
	err error
}

func (s *stubCreator) CreateBooking(_ context.Context, in service.CreateBookingInput) (*service.CreateBookingResult, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return &service.CreateBookingResult{Booking: &model.Booking{ID: "b-1", Status: model.StatusPendingDeposit}, ManageToken: "raw"}, nil
}

type stubChecker struct{ captain string }

func (s *stubChecker) IsAvailable(_ context.Context, captainID string, _, _ time.Time) (availability.Result, error) {
	s.captain = captainID
	return availability.Result{Available: false, Reason: "closed on Sunday"}, nil
}

// stubCaptain embeds the interface so tests only implement what they call.
type stubCaptain struct {
	CaptainBookings
	query  listing.Query
	page   listing.Page
	caller string
	err    error
}

func (s *stubCaptain) ListBookings(_ context.Context, q listing.Query) (listing.Page, error) {
	s.query = q
	return s.page, s.err
}

func (s *stubCaptain) ExportBookings(_ context.Context, q listing.Query) (*bytes.Buffer, string, error) {
	s.query = q
	return bytes.NewBufferString("xlsx"), "bookings_2025-06-01_all.xlsx", s.err
}

func (s *stubCaptain) GetForCaptain(_ context.Context, captainID, bookingID string) (*model.Booking, error) {
	s.caller = captainID
	if s.err != nil {
		return nil, s.err
	}
	return &model.Booking{ID: bookingID, CaptainID: captainID}, nil
}

type stubCalendar struct{ CalendarAdmin }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func asCaptain(id string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxCaptainID, id)
			return next(c)
		}
	}
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&service.ValidationError{Field: "party_size", Message: "must be at least 1"}, http.StatusBadRequest, "validation_failed"},
		{&service.UnavailableError{Reason: "blacked out"}, http.StatusUnprocessableEntity, "unavailable"},
		{&service.ConflictError{}, http.StatusConflict, "conflict"},
		{&service.TransitionError{From: model.StatusCompleted, To: model.StatusConfirmed}, http.StatusConflict, "invalid_transition"},
		{service.ErrOfferAlreadySelected, http.StatusConflict, "offer_taken"},
		{service.ErrOfferExpired, http.StatusGone, "offer_expired"},
		{service.ErrOfferNotFound, http.StatusNotFound, "offer_not_found"},
		{service.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{repository.ErrForbidden, http.StatusForbidden, "forbidden"},
		{service.ErrNotOnHold, http.StatusConflict, "not_on_hold"},
		{service.ErrBookingLocked, http.StatusConflict, "booking_locked"},
		{service.ErrStaleBooking, http.StatusConflict, "stale_write"},
		{repository.ErrConflict, http.StatusConflict, "conflict"},
		{fmt.Errorf("wrapped: %w", service.ErrBookingNotFound), http.StatusNotFound, "not_found"},
		{errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := respondError(c, zap.NewNop(), tc.err); err != nil {
			t.Fatalf("respondError: %v", err)
		}
		if rec.Code != tc.status {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		if got := decode(t, rec)["error"]; got != tc.code {
			t.Errorf("%v: code = %v, want %s", tc.err, got, tc.code)
		}
	}
}

func TestRespondError_ConflictHidesGuest(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	err := &service.ConflictError{Conflicts: []model.Booking{{
		ID: "b-9", VesselID: "v-1", GuestName: "Ada Lovelace", GuestEmail: "ada@example.com",
		ScheduledStart: start, ScheduledEnd: start.Add(2 * time.Hour),
	}}}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	_ = respondError(c, zap.NewNop(), err)
	body := rec.Body.String()
	if strings.Contains(body, "Ada") || strings.Contains(body, "ada@example.com") {
		t.Fatalf("guest details leaked: %s", body)
	}
	if !strings.Contains(body, `"id":"b-9"`) {
		t.Fatalf("conflict id missing: %s", body)
	}
}

func TestCreateBooking(t *testing.T) {
	e := echo.New()
	creator := &stubCreator{}
	h := NewPublicHandler(creator, &stubChecker{}, zap.NewNop())
	e.POST("/v1/bookings", h.CreateBooking)

	body := `{"captain_id":"cap-1","trip_type_id":"t-1","vessel_id":"v-1","guest_name":"Ada","guest_email":"a@b.c","party_size":2,"start":"2025-06-02T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if creator.got.PartySize != 2 || !creator.got.Start.Equal(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("input not bound: %+v", creator.got)
	}
	if decode(t, rec)["manage_token"] != "raw" {
		t.Fatalf("manage token missing: %s", rec.Body.String())
	}

	creator.err = &service.UnavailableError{Reason: "outside operating hours"}
	req = httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unavailable status = %d", rec.Code)
	}
}

func TestAvailability(t *testing.T) {
	e := echo.New()
	checker := &stubChecker{}
	h := NewPublicHandler(&stubCreator{}, checker, zap.NewNop())
	e.GET("/v1/captains/:id/availability", h.Availability)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captains/cap-1/availability?start=2025-06-01T10:00:00Z&end=2025-06-01T12:00:00Z", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if checker.captain != "cap-1" {
		t.Fatalf("captain = %q", checker.captain)
	}
	if m := decode(t, rec); m["available"] != false || m["reason"] != "closed on Sunday" {
		t.Fatalf("body = %v", m)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captains/cap-1/availability?start=tomorrow&end=2025-06-01T12:00:00Z", nil))
	if rec.Code != http.StatusBadRequest || decode(t, rec)["field"] != "start" {
		t.Fatalf("bad start: %d %s", rec.Code, rec.Body.String())
	}
}

func TestListBookings_QueryAndPageShapes(t *testing.T) {
	e := echo.New()
	stub := &stubCaptain{page: listing.Page{Mode: listing.ModeCursor, Items: []model.Booking{{ID: "b-1"}}, TotalCount: 1}}
	h := NewCaptainHandler(stub, stubCalendar{}, zap.NewNop())
	e.GET("/v1/captain/bookings", h.ListBookings, asCaptain("cap-1"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/captain/bookings?status=CONFIRMED,pending_deposit&status=weather_hold&tags=vip&sortField=guest_name&sortDir=desc&limit=5&includeHistorical=true&search=ada", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	q := stub.query
	if q.CaptainID != "cap-1" || q.SortField != listing.SortGuestName || q.SortDir != listing.Desc || q.Limit != 5 || !q.IncludeHistorical || q.Search != "ada" {
		t.Fatalf("query = %+v", q)
	}
	want := []model.BookingStatus{model.StatusConfirmed, model.StatusPendingDeposit, model.StatusWeatherHold}
	if len(q.Statuses) != len(want) {
		t.Fatalf("statuses = %v", q.Statuses)
	}
	for i := range want {
		if q.Statuses[i] != want[i] {
			t.Fatalf("statuses = %v", q.Statuses)
		}
	}
	m := decode(t, rec)
	if _, ok := m["next_cursor"]; !ok || m["next_cursor"] != nil {
		t.Fatalf("cursor page should carry a null next_cursor: %v", m)
	}
	if _, ok := m["total_pages"]; ok {
		t.Fatalf("cursor page carries offset fields: %v", m)
	}

	stub.page = listing.OffsetPage([]model.Booking{{ID: "b-2"}}, 3, 10, 25)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captain/bookings?page=3&limit=10", nil))
	m = decode(t, rec)
	if m["page"] != float64(3) || m["total_pages"] != float64(3) || m["page_size"] != float64(10) {
		t.Fatalf("offset page = %v", m)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captain/bookings?page=two", nil))
	if rec.Code != http.StatusBadRequest || decode(t, rec)["field"] != "page" {
		t.Fatalf("bad page: %d %s", rec.Code, rec.Body.String())
	}
}

func TestExportBookings_Attachment(t *testing.T) {
	e := echo.New()
	h := NewCaptainHandler(&stubCaptain{}, stubCalendar{}, zap.NewNop())
	e.GET("/v1/captain/bookings/export", h.ExportBookings, asCaptain("cap-1"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captain/bookings/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="bookings_2025-06-01_all.xlsx"` {
		t.Fatalf("disposition = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != xlsxMIME {
		t.Fatalf("content type = %q", got)
	}
}

func TestGetBooking_UsesTokenCaptain(t *testing.T) {
	e := echo.New()
	stub := &stubCaptain{}
	h := NewCaptainHandler(stub, stubCalendar{}, zap.NewNop())
	e.GET("/v1/captain/bookings/:id", h.GetBooking, asCaptain("cap-7"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captain/bookings/b-1?captain_id=cap-1", nil))
	if rec.Code != http.StatusOK || stub.caller != "cap-7" {
		t.Fatalf("status %d, caller %q", rec.Code, stub.caller)
	}

	stub.err = repository.ErrForbidden
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/captain/bookings/b-1", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("forbidden status = %d", rec.Code)
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := Health(pinger{})(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	_ = Health(pinger{err: errors.New("down")})(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
