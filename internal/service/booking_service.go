package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/utils"
)

// Options tunes the booking service.
type Options struct {
	// ManageTokenTTL is how long after the trip ends a guest link works.
	ManageTokenTTL time.Duration
	// DepositWindow is how long an unpaid pending_deposit booking lives
	// when the captain has not configured a window.
	DepositWindow time.Duration
}

// Deps are the collaborators of BookingService.
type Deps struct {
	Bookings     BookingStore
	Offers       OfferStore
	Catalog      CatalogStore
	Tokens       TokenStore
	Logs         LogStore
	Availability *AvailabilityService
	Notifier     Notifier
}

// BookingService drives bookings through creation, the status lifecycle,
// the weather-hold reschedule workflow and payment reconciliation.
type BookingService struct {
	bookings BookingStore
	offers   OfferStore
	catalog  CatalogStore
	tokens   TokenStore
	logs     LogStore
	avail    *AvailabilityService
	audit    *AuditRecorder
	notifier Notifier
	opts     Options
	log      *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewBookingService(d Deps, opts Options, log *zap.Logger) *BookingService {
	if opts.ManageTokenTTL <= 0 {
		opts.ManageTokenTTL = 30 * 24 * time.Hour
	}
	if opts.DepositWindow <= 0 {
		opts.DepositWindow = 48 * time.Hour
	}
	n := d.Notifier
	if n == nil {
		n = NopNotifier{}
	}
	s := &BookingService{
		bookings: d.Bookings,
		offers:   d.Offers,
		catalog:  d.Catalog,
		tokens:   d.Tokens,
		logs:     d.Logs,
		avail:    d.Availability,
		audit:    NewAuditRecorder(d.Logs, log),
		notifier: n,
		opts:     opts,
		log:      log,
		tracer:   tracer(),
		now:      time.Now,
	}
	s.audit.now = func() time.Time { return s.now() }
	return s
}

// CreateBookingInput is a reservation request.  End may be zero, in which
// case the trip type's duration is used.
type CreateBookingInput struct {
	CaptainID  string    `json:"captain_id"`
	TripTypeID string    `json:"trip_type_id"`
	VesselID   string    `json:"vessel_id"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	GuestPhone string    `json:"guest_phone"`
	PartySize  int       `json:"party_size"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Tags       []string  `json:"tags"`
}

// CreateBookingResult carries the new booking and the raw management
// token.  The token is never retrievable again.
type CreateBookingResult struct {
	Booking     *model.Booking `json:"booking"`
	ManageToken string         `json:"manage_token"`
}

func (in *CreateBookingInput) normalize() error {
	in.CaptainID = strings.TrimSpace(in.CaptainID)
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.GuestEmail = strings.TrimSpace(in.GuestEmail)
	in.GuestPhone = strings.TrimSpace(in.GuestPhone)
	switch {
	case in.CaptainID == "":
		return invalid("captain_id", "is required")
	case in.TripTypeID == "":
		return invalid("trip_type_id", "is required")
	case in.VesselID == "":
		return invalid("vessel_id", "is required")
	case in.GuestName == "":
		return invalid("guest_name", "is required")
	case in.GuestEmail == "" && in.GuestPhone == "":
		return invalid("guest_email", "an email address or phone number is required")
	case in.GuestEmail != "" && !strings.Contains(in.GuestEmail, "@"):
		return invalid("guest_email", "is not a valid email address")
	case in.PartySize < 1:
		return invalid("party_size", "must be at least 1")
	case in.Start.IsZero():
		return invalid("start", "is required")
	}
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return nil
}

// vesselFor loads a vessel and checks it can carry the party for the
// captain.
func (s *BookingService) vesselFor(ctx context.Context, captainID, vesselID string, partySize int) (*model.Vessel, error) {
	v, err := s.catalog.Vessel(ctx, vesselID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("vessel_id", "unknown vessel")
		}
		return nil, err
	}
	if v.CaptainID != captainID {
		return nil, invalid("vessel_id", "unknown vessel")
	}
	if !v.IsActive {
		return nil, invalid("vessel_id", "vessel %s is not taking bookings", v.Name)
	}
	if partySize > v.Capacity {
		return nil, invalid("party_size", "party of %d exceeds the %d-guest capacity of %s", partySize, v.Capacity, v.Name)
	}
	return v, nil
}

// CreateBooking validates the request, checks availability and books the
// vessel.  The conflict check and the insert happen atomically in the
// store.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (res *CreateBookingResult, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.create",
		trace.WithAttributes(attribute.String("captain.id", in.CaptainID), attribute.String("vessel.id", in.VesselID)))
	defer func() { endSpan(span, err) }()

	if err := in.normalize(); err != nil {
		return nil, err
	}
	trip, err := s.catalog.TripType(ctx, in.TripTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("trip_type_id", "unknown trip type")
		}
		return nil, err
	}
	if trip.CaptainID != in.CaptainID || !trip.IsActive {
		return nil, invalid("trip_type_id", "unknown trip type")
	}
	if _, err := s.vesselFor(ctx, in.CaptainID, in.VesselID, in.PartySize); err != nil {
		return nil, err
	}
	end := in.End
	if end.IsZero() {
		end = in.Start.Add(trip.Duration())
	}
	if !end.After(in.Start) {
		return nil, invalid("end", "must be after start")
	}
	profile, loc, err := s.avail.profile(ctx, in.CaptainID)
	if err != nil {
		return nil, err
	}
	avail, err := s.avail.check(ctx, in.CaptainID, loc, in.Start, end)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, &UnavailableError{Reason: avail.Reason}
	}

	status := model.StatusConfirmed
	if trip.RequiresDeposit() {
		status = model.StatusPendingDeposit
	}
	b := &model.Booking{
		ID:              uuid.NewString(),
		CaptainID:       in.CaptainID,
		TripTypeID:      trip.ID,
		VesselID:        in.VesselID,
		GuestName:       in.GuestName,
		GuestEmail:      in.GuestEmail,
		GuestPhone:      in.GuestPhone,
		PartySize:       in.PartySize,
		ScheduledStart:  in.Start.UTC(),
		ScheduledEnd:    end.UTC(),
		Timezone:        loc.String(),
		Status:          status,
		PaymentStatus:   model.PaymentUnpaid,
		TotalPriceCents: trip.PriceCents,
		BalanceDueCents: model.BalanceFor(trip.PriceCents, 0, model.PaymentUnpaid),
		Tags:            in.Tags,
	}
	tok, err := utils.NewManageToken()
	if err != nil {
		return nil, err
	}
	conflicts, err := s.bookings.CreateIfFree(ctx, b,
		repository.AccessToken{Hash: tok.Hash, ExpiresAt: b.ScheduledEnd.Add(s.opts.ManageTokenTTL)}, profile.Buffer())
	if errors.Is(err, repository.ErrConflict) {
		return nil, &ConflictError{Conflicts: conflicts}
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, b.ID, model.LogCreation,
		fmt.Sprintf("Booking created for %s, party of %d, status %s", b.GuestName, b.PartySize, b.Status),
		nil, snapshot(b), model.GuestActor(b.ID))
	s.notify(ctx, b, queue.EventCreated, model.GuestActor(b.ID), "", "booking created", "")
	s.log.Info("booking created", zap.String("booking_id", b.ID), zap.String("status", string(b.Status)))
	return &CreateBookingResult{Booking: b, ManageToken: tok.Raw}, nil
}

// bookingSnapshot is the audited view of a booking's schedule and status.
type bookingSnapshot struct {
	Status    model.BookingStatus `json:"status"`
	VesselID  string              `json:"vessel_id"`
	Start     time.Time           `json:"scheduled_start"`
	End       time.Time           `json:"scheduled_end"`
	PartySize int                 `json:"party_size"`
}

func snapshot(b *model.Booking) bookingSnapshot {
	return bookingSnapshot{Status: b.Status, VesselID: b.VesselID, Start: b.ScheduledStart, End: b.ScheduledEnd, PartySize: b.PartySize}
}

// notify publishes an event for b.  Publish failures are logged and
// ignored.
func (s *BookingService) notify(ctx context.Context, b *model.Booking, typ string, actor model.Actor, from model.BookingStatus, description, message string) {
	ev := queue.BookingEvent{
		ID:             uuid.NewString(),
		Type:           typ,
		BookingID:      b.ID,
		CaptainID:      b.CaptainID,
		GuestName:      b.GuestName,
		GuestEmail:     b.GuestEmail,
		GuestPhone:     b.GuestPhone,
		ScheduledStart: b.ScheduledStart,
		ScheduledEnd:   b.ScheduledEnd,
		Timezone:       b.Timezone,
		FromStatus:     string(from),
		ToStatus:       string(b.Status),
		ActorType:      string(actor.Type),
		Description:    description,
		Message:        message,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.Warn("notify: publish failed", zap.String("booking_id", b.ID), zap.String("type", typ), zap.Error(err))
	}
}

// transition moves b to status to after checking the lifecycle graph.  The
// write is a compare-and-swap on b.Status; on success b is updated in
// place, the change is audited and an event is published.
func (s *BookingService) transition(ctx context.Context, b *model.Booking, to model.BookingStatus, actor model.Actor, entry model.LogEntryType, note string, holdReason *string) error {
	from := b.Status
	if !model.CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, from, to, holdReason); err != nil {
		return bookingErr(err)
	}
	b.Status = to
	if to == model.StatusWeatherHold {
		b.WeatherHoldReason = holdReason
	}

	desc := fmt.Sprintf("Status changed from %s to %s", from, to)
	if note != "" {
		desc += ": " + note
	}
	s.audit.Record(ctx, b.ID, entry, desc,
		map[string]any{"status": from}, map[string]any{"status": to}, actor)

	typ := queue.EventStatusChanged
	if to == model.StatusWeatherHold {
		typ = queue.EventWeatherHold
	}
	s.notify(ctx, b, typ, actor, from, desc, note)
	return nil
}

// GetForCaptain returns one of the captain's bookings.
func (s *BookingService) GetForCaptain(ctx context.Context, captainID, bookingID string) (*model.Booking, error) {
	b, err := s.bookings.GetForCaptain(ctx, captainID, bookingID)
	if err != nil {
		return nil, bookingErr(err)
	}
	return b, nil
}

// ChangeStatus applies a captain-initiated status change.  Expiry belongs
// to the sweep and weather holds need a reason, so both are refused here.
func (s *BookingService) ChangeStatus(ctx context.Context, captainID, bookingID string, to model.BookingStatus, note string) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.change_status",
		trace.WithAttributes(attribute.String("booking.id", bookingID), attribute.String("booking.to", string(to))))
	defer func() { endSpan(span, err) }()

	if !to.Valid() {
		return nil, invalid("status", "unknown status %q", to)
	}
	switch to {
	case model.StatusExpired:
		return nil, invalid("status", "bookings expire automatically when the deposit window lapses")
	case model.StatusWeatherHold:
		return nil, invalid("status", "use the weather hold action, which requires a reason")
	}
	b, err = s.GetForCaptain(ctx, captainID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, b, to, model.CaptainActor(captainID), model.LogStatusChange, strings.TrimSpace(note), nil); err != nil {
		return nil, err
	}
	return b, nil
}

// AddNote appends a captain note to the booking history.  Unlike audit
// entries the note is the operation itself, so a failed write is returned.
func (s *BookingService) AddNote(ctx context.Context, captainID, bookingID, note string) (*model.BookingLog, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, invalid("note", "is required")
	}
	if len(note) > 4000 {
		return nil, invalid("note", "must be at most 4000 characters")
	}
	if _, err := s.GetForCaptain(ctx, captainID, bookingID); err != nil {
		return nil, err
	}
	e, err := s.audit.entry(bookingID, model.LogNote, note, nil, nil, model.CaptainActor(captainID))
	if err != nil {
		return nil, err
	}
	if err := s.logs.Append(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListLogs returns the booking history, oldest first.
func (s *BookingService) ListLogs(ctx context.Context, captainID, bookingID string) ([]model.BookingLog, error) {
	if _, err := s.GetForCaptain(ctx, captainID, bookingID); err != nil {
		return nil, err
	}
	return s.logs.ListByBooking(ctx, bookingID)
}
