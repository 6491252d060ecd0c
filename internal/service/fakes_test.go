package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/availability"
	"github.com/iliyamo/charter-booking/internal/listing"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// ── bookings ──

type fakeBookings struct {
	mu      sync.Mutex
	rows    map[string]model.Booking
	tokens  map[string]repository.AccessToken // booking id -> token
	offers  *fakeOffers
	failErr error
}

func newFakeBookings(offers *fakeOffers) *fakeBookings {
	return &fakeBookings{rows: map[string]model.Booking{}, tokens: map[string]repository.AccessToken{}, offers: offers}
}

func (f *fakeBookings) put(b model.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.Tags == nil {
		b.Tags = []string{}
	}
	f.rows[b.ID] = b
}

func (f *fakeBookings) get(id string) model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookings) GetForCaptain(ctx context.Context, captainID, id string) (*model.Booking, error) {
	b, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CaptainID != captainID {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

func (f *fakeBookings) conflictsLocked(q repository.ConflictQuery) []model.Booking {
	var out []model.Booking
	for _, b := range f.rows {
		if b.VesselID != q.VesselID || b.ID == q.ExcludeID || !b.Status.IsActive() {
			continue
		}
		if b.Overlaps(q.Start.Add(-q.Buffer), q.End.Add(q.Buffer)) {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeBookings) FindConflicts(_ context.Context, q repository.ConflictQuery) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conflictsLocked(q), nil
}

func (f *fakeBookings) CreateIfFree(_ context.Context, b *model.Booking, tok repository.AccessToken, buffer time.Duration) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	if c := f.conflictsLocked(repository.ConflictQuery{VesselID: b.VesselID, Start: b.ScheduledStart, End: b.ScheduledEnd, Buffer: buffer}); len(c) > 0 {
		return c, repository.ErrConflict
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	f.rows[b.ID] = *b
	if tok.Hash != "" {
		f.tokens[b.ID] = tok
	}
	return nil, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus, holdReason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrStaleWrite
	}
	b.Status = to
	if to == model.StatusWeatherHold {
		b.WeatherHoldReason = holdReason
		if f.offers != nil {
			f.offers.supersede(id, time.Now().UTC())
		}
	}
	f.rows[id] = b
	return nil
}

func (f *fakeBookings) Reschedule(_ context.Context, m repository.Reschedule) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[m.BookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if b.Status != m.FromStatus {
		return nil, repository.ErrStaleWrite
	}
	if m.OfferID != "" {
		if err := f.offers.selectable(m.BookingID, m.OfferID, m.Now); err != nil {
			return nil, err
		}
	}
	if c := f.conflictsLocked(repository.ConflictQuery{VesselID: m.VesselID, Start: m.Start, End: m.End, ExcludeID: b.ID, Buffer: m.Buffer}); len(c) > 0 {
		return c, repository.ErrConflict
	}
	if m.OfferID != "" {
		f.offers.markSelected(m.OfferID)
	}
	if b.OriginalStart == nil {
		s, e := b.ScheduledStart, b.ScheduledEnd
		b.OriginalStart, b.OriginalEnd = &s, &e
	}
	b.VesselID, b.ScheduledStart, b.ScheduledEnd, b.Status = m.VesselID, m.Start.UTC(), m.End.UTC(), m.ToStatus
	f.rows[b.ID] = b
	return nil, nil
}

func (f *fakeBookings) UpdatePayment(_ context.Context, p repository.PaymentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[p.BookingID]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentStatus, b.DepositPaidCents, b.BalanceDueCents = p.PaymentStatus, p.DepositPaidCents, p.BalanceDueCents
	f.rows[b.ID] = b
	return nil
}

func (f *fakeBookings) ListStaleDeposits(_ context.Context, now time.Time, window time.Duration, limit int) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.rows {
		if b.Status == model.StatusPendingDeposit && b.CreatedAt.Before(now.Add(-window)) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// List mirrors the repository semantics for the filters the tests use.
func (f *fakeBookings) List(_ context.Context, q listing.Resolved) ([]model.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Booking
	for _, b := range f.rows {
		if b.CaptainID != q.CaptainID {
			continue
		}
		if q.From != nil && b.ScheduledStart.Before(*q.From) {
			continue
		}
		if q.To != nil && !b.ScheduledStart.Before(*q.To) {
			continue
		}
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, b.Status) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(b.GuestName+" "+b.GuestEmail+" "+b.GuestPhone), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		vi, vj := listing.SortValue(matched[i], q.SortField), listing.SortValue(matched[j], q.SortField)
		if vi != vj {
			if q.SortDir == listing.Desc {
				return vi > vj
			}
			return vi < vj
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	if q.Mode() == listing.ModeOffset {
		off := q.Offset()
		if off > total {
			off = total
		}
		end := off + q.Limit
		if end > total {
			end = total
		}
		return matched[off:end], total, nil
	}
	var out []model.Booking
	for _, b := range matched {
		if q.After != nil {
			v := listing.SortValue(b, q.SortField)
			past := v > q.After.Value
			if q.SortDir == listing.Desc {
				past = v < q.After.Value
			}
			if !past && !(v == q.After.Value && b.ID > q.After.ID) {
				continue
			}
		}
		out = append(out, b)
		if len(out) == q.Limit+1 {
			break
		}
	}
	return out, total, nil
}

func containsStatus(set []model.BookingStatus, s model.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// ── offers ──

type fakeOffers struct {
	mu   sync.Mutex
	rows []model.RescheduleOffer
}

func (f *fakeOffers) CreateBulk(_ context.Context, offers []model.RescheduleOffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, offers...)
	return nil
}

func (f *fakeOffers) ListByBooking(_ context.Context, bookingID string) ([]model.RescheduleOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.RescheduleOffer{}
	for _, o := range f.rows {
		if o.BookingID == bookingID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOffers) selectable(bookingID, offerID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *model.RescheduleOffer
	for i := range f.rows {
		o := &f.rows[i]
		if o.BookingID != bookingID || !o.Current() {
			continue
		}
		if o.IsSelected {
			return repository.ErrOfferTaken
		}
		if o.ID == offerID {
			target = o
		}
	}
	if target == nil {
		return repository.ErrOfferNotFound
	}
	if target.Expired(now) {
		return repository.ErrOfferExpired
	}
	return nil
}

func (f *fakeOffers) supersede(bookingID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].BookingID == bookingID && f.rows[i].SupersededAt == nil {
			f.rows[i].SupersededAt = &at
		}
	}
}

func (f *fakeOffers) markSelected(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].IsSelected = true
		}
	}
}

// ── availability & catalog ──

type fakeAvailability struct {
	windows   []model.AvailabilityWindow
	blackouts []model.BlackoutDate
}

func (f *fakeAvailability) Windows(_ context.Context, captainID string) ([]model.AvailabilityWindow, error) {
	return f.windows, nil
}

func (f *fakeAvailability) ReplaceWindows(_ context.Context, captainID string, w []model.AvailabilityWindow) error {
	f.windows = w
	return nil
}

func (f *fakeAvailability) Blackouts(_ context.Context, captainID, from, to string) ([]model.BlackoutDate, error) {
	var out []model.BlackoutDate
	for _, b := range f.blackouts {
		if (from == "" || b.Date >= from) && (to == "" || b.Date <= to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAvailability) Rules(ctx context.Context, captainID, date string) (availability.Rules, error) {
	b, _ := f.Blackouts(ctx, captainID, date, date)
	return availability.Rules{Windows: f.windows, Blackouts: b}, nil
}

func (f *fakeAvailability) AddBlackout(_ context.Context, b *model.BlackoutDate) error {
	for _, x := range f.blackouts {
		if x.Date == b.Date && x.CaptainID == b.CaptainID {
			return repository.ErrConflict
		}
	}
	f.blackouts = append(f.blackouts, *b)
	return nil
}

func (f *fakeAvailability) DeleteBlackout(_ context.Context, captainID, id string) error {
	for i, b := range f.blackouts {
		if b.ID == id {
			if b.CaptainID != captainID {
				return repository.ErrForbidden
			}
			f.blackouts = append(f.blackouts[:i], f.blackouts[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeCatalog struct {
	profiles map[string]model.CaptainProfile
	vessels  map[string]model.Vessel
	trips    map[string]model.TripType
}

func (f *fakeCatalog) Profile(_ context.Context, id string) (*model.CaptainProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) Vessel(_ context.Context, id string) (*model.Vessel, error) {
	v, ok := f.vessels[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (f *fakeCatalog) TripType(_ context.Context, id string) (*model.TripType, error) {
	t, ok := f.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// ── logs, tokens, notifier ──

type fakeLogs struct {
	mu      sync.Mutex
	entries []model.BookingLog
	fail    bool
}

func (f *fakeLogs) Append(_ context.Context, e *model.BookingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("log store down")
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeLogs) ListByBooking(_ context.Context, bookingID string) ([]model.BookingLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BookingLog
	for _, e := range f.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogs) ofType(bookingID string, t model.LogEntryType) []model.BookingLog {
	all, _ := f.ListByBooking(context.Background(), bookingID)
	var out []model.BookingLog
	for _, e := range all {
		if e.EntryType == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeTokens struct{ bookings *fakeBookings }

func (f *fakeTokens) Resolve(_ context.Context, hash string, now time.Time) (string, error) {
	f.bookings.mu.Lock()
	defer f.bookings.mu.Unlock()
	for id, tok := range f.bookings.tokens {
		if tok.Hash == hash && now.Before(tok.ExpiresAt) {
			return id, nil
		}
	}
	return "", repository.ErrNotFound
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	fail   bool
}

func (f *fakeNotifier) Publish(_ context.Context, ev queue.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unreachable")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeNotifier) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

// ── harness ──

const (
	captainID = "cap-1"
	otherCap  = "cap-2"
	vesselID  = "vessel-1"
	vessel2   = "vessel-2"
	tripNoDep = "trip-nodep"
	tripDep   = "trip-dep"
)

type harness struct {
	svc      *BookingService
	avail    *AvailabilityService
	bookings *fakeBookings
	offers   *fakeOffers
	calendar *fakeAvailability
	catalog  *fakeCatalog
	logs     *fakeLogs
	notifier *fakeNotifier
	now      time.Time
}

// monday is 2025-06-02, a Monday, in UTC.
func monday(h, m int) time.Time { return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC) }

func newHarness(t *testing.T) *harness {
	t.Helper()
	offers := &fakeOffers{}
	bookings := newFakeBookings(offers)
	calendar := &fakeAvailability{}
	catalog := &fakeCatalog{
		profiles: map[string]model.CaptainProfile{
			captainID: {ID: captainID, Timezone: "UTC"},
			otherCap:  {ID: otherCap, Timezone: "UTC"},
		},
		vessels: map[string]model.Vessel{
			vesselID: {ID: vesselID, CaptainID: captainID, Name: "Reel Time", Capacity: 6, IsActive: true},
			vessel2:  {ID: vessel2, CaptainID: captainID, Name: "Second Wind", Capacity: 4, IsActive: true},
		},
		trips: map[string]model.TripType{
			tripNoDep: {ID: tripNoDep, CaptainID: captainID, Name: "Sunset", DurationMinutes: 120, PriceCents: 40000, IsActive: true},
			tripDep:   {ID: tripDep, CaptainID: captainID, Name: "Offshore", DurationMinutes: 240, PriceCents: 90000, DepositCents: 20000, IsActive: true},
		},
	}
	logs := &fakeLogs{}
	notifier := &fakeNotifier{}
	log := zap.NewNop()
	avail := NewAvailabilityService(calendar, catalog, log)
	svc := NewBookingService(Deps{
		Bookings: bookings, Offers: offers, Catalog: catalog, Tokens: &fakeTokens{bookings: bookings},
		Logs: logs, Availability: avail, Notifier: notifier,
	}, Options{ManageTokenTTL: 24 * time.Hour, DepositWindow: 48 * time.Hour}, log)
	h := &harness{svc: svc, avail: avail, bookings: bookings, offers: offers, calendar: calendar, catalog: catalog, logs: logs, notifier: notifier, now: monday(6, 0)}
	svc.now = func() time.Time { return h.now }
	return h
}

func (h *harness) create(t *testing.T, start time.Time, trip string) *CreateBookingResult {
	t.Helper()
	res, err := h.svc.CreateBooking(context.Background(), CreateBookingInput{
		CaptainID: captainID, TripTypeID: trip, VesselID: vesselID,
		GuestName: "Ann Guest", GuestEmail: "ann@example.com", PartySize: 2, Start: start,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return res
}

// seed stores a booking directly, bypassing creation.
func (h *harness) seed(id string, status model.BookingStatus, start, end time.Time) model.Booking {
	b := model.Booking{
		ID: id, CaptainID: captainID, TripTypeID: tripNoDep, VesselID: vesselID, GuestName: "Guest " + id,
		PartySize: 2, ScheduledStart: start, ScheduledEnd: end, Timezone: "UTC", Status: status,
		PaymentStatus: model.PaymentUnpaid, TotalPriceCents: 40000, BalanceDueCents: 40000, CreatedAt: start.Add(-72 * time.Hour),
	}
	h.bookings.put(b)
	return b
}
