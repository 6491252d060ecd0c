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

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// MaxOffersPerRequest bounds how many alternatives a captain proposes at
// once.
const MaxOffersPerRequest = 10

// PlaceWeatherHold suspends a confirmed or rescheduled booking.  The reason
// is stored on the booking and shown to the guest.
func (s *BookingService) PlaceWeatherHold(ctx context.Context, captainID, bookingID, reason string) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.weather_hold", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}
	b, err = s.GetForCaptain(ctx, captainID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, b, model.StatusWeatherHold, model.CaptainActor(captainID), model.LogWeatherHold, reason, &reason); err != nil {
		return nil, err
	}
	return b, nil
}

// OfferInput is one proposed alternative slot.  VesselID moves the trip to
// another of the captain's vessels.
type OfferInput struct {
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	VesselID  *string    `json:"vessel_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateOffers proposes alternative slots for a booking on weather hold.
// Every slot is checked against the calendar and for conflicts on its
// vessel before any offer is stored.
func (s *BookingService) CreateOffers(ctx context.Context, captainID, bookingID string, in []OfferInput) (offers []model.RescheduleOffer, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.create_offers", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	if len(in) == 0 {
		return nil, invalid("offers", "at least one offer is required")
	}
	if len(in) > MaxOffersPerRequest {
		return nil, invalid("offers", "at most %d offers can be proposed at once", MaxOffersPerRequest)
	}
	b, err := s.GetForCaptain(ctx, captainID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusWeatherHold {
		return nil, ErrNotOnHold
	}
	profile, loc, err := s.avail.profile(ctx, captainID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i, o := range in {
		field := fmt.Sprintf("offers[%d]", i)
		if !o.End.After(o.Start) {
			return nil, invalid(field, "end must be after start")
		}
		if o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
			return nil, invalid(field, "expires_at must be in the future")
		}
		vesselID := b.VesselID
		var vessel *string
		if o.VesselID != nil && *o.VesselID != "" && *o.VesselID != b.VesselID {
			if _, err := s.vesselFor(ctx, captainID, *o.VesselID, b.PartySize); err != nil {
				return nil, err
			}
			vesselID = *o.VesselID
			vessel = &vesselID
		}
		res, err := s.avail.check(ctx, captainID, loc, o.Start, o.End)
		if err != nil {
			return nil, err
		}
		if !res.Available {
			return nil, &UnavailableError{Reason: fmt.Sprintf("Offer %d: %s", i+1, res.Reason)}
		}
		conflicts, err := s.bookings.FindConflicts(ctx, repository.ConflictQuery{
			VesselID: vesselID, Start: o.Start, End: o.End, ExcludeID: b.ID, Buffer: profile.Buffer(),
		})
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, &ConflictError{Conflicts: conflicts}
		}
		offer := model.RescheduleOffer{
			ID: uuid.NewString(), BookingID: b.ID, VesselID: vessel,
			ProposedStart: o.Start.UTC(), ProposedEnd: o.End.UTC(), CreatedAt: now.UTC(),
		}
		if o.ExpiresAt != nil {
			t := o.ExpiresAt.UTC()
			offer.ExpiresAt = &t
		}
		offers = append(offers, offer)
	}
	if err := s.offers.CreateBulk(ctx, offers); err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("%d reschedule offer(s) sent to guest", len(offers))
	s.audit.Record(ctx, b.ID, model.LogOffer, desc, nil, offers, model.CaptainActor(captainID))
	s.notify(ctx, b, queue.EventOffersCreated, model.CaptainActor(captainID), "", desc, "")
	return offers, nil
}

// ListOffers returns every offer of the captain's booking, including those
// superseded by a later hold.
func (s *BookingService) ListOffers(ctx context.Context, captainID, bookingID string) ([]model.RescheduleOffer, error) {
	if _, err := s.GetForCaptain(ctx, captainID, bookingID); err != nil {
		return nil, err
	}
	return s.offers.ListByBooking(ctx, bookingID)
}

// selectionTarget is the status a booking takes when an offer is chosen:
// confirmed when the offer keeps the trip where and when it was, otherwise
// rescheduled.  Repeat holds follow the same rule.
func selectionTarget(b *model.Booking, o model.RescheduleOffer) model.BookingStatus {
	if o.TargetVessel(b.VesselID) == b.VesselID &&
		o.ProposedStart.Equal(b.ScheduledStart) && o.ProposedEnd.Equal(b.ScheduledEnd) {
		return model.StatusConfirmed
	}
	return model.StatusRescheduled
}

// SelectOffer applies the guest's choice.  Only offers of the current hold
// count: the offer must be unexpired and no other current offer may be
// selected.  The store re-checks both under lock so at most one selection
// per hold ever succeeds.
func (s *BookingService) SelectOffer(ctx context.Context, token, offerID string) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.select_offer", trace.WithAttributes(attribute.String("offer.id", offerID)))
	defer func() { endSpan(span, err) }()

	b, err = s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	offers, err := s.offers.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	var chosen *model.RescheduleOffer
	for i := range offers {
		if !offers[i].Current() {
			continue
		}
		if offers[i].IsSelected {
			return nil, ErrOfferAlreadySelected
		}
		if offers[i].ID == offerID {
			chosen = &offers[i]
		}
	}
	if chosen == nil {
		return nil, ErrOfferNotFound
	}
	now := s.now()
	if chosen.Expired(now) {
		return nil, ErrOfferExpired
	}
	if b.Status != model.StatusWeatherHold {
		return nil, ErrNotOnHold
	}
	to := selectionTarget(b, *chosen)
	if !model.CanTransition(b.Status, to) {
		return nil, &TransitionError{From: b.Status, To: to}
	}
	profile, err := s.catalog.Profile(ctx, b.CaptainID)
	if err != nil {
		return nil, err
	}
	before := snapshot(b)
	conflicts, err := s.bookings.Reschedule(ctx, repository.Reschedule{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   to,
		VesselID:   chosen.TargetVessel(b.VesselID),
		Start:      chosen.ProposedStart,
		End:        chosen.ProposedEnd,
		Buffer:     profile.Buffer(),
		OfferID:    chosen.ID,
		Now:        now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Conflicts: conflicts}
		}
		return nil, bookingErr(err)
	}
	updated, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, bookingErr(err)
	}
	actor := model.GuestActor(b.ID)
	desc := fmt.Sprintf("Guest selected reschedule offer; trip moved to %s", updated.ScheduledStart.Format(time.RFC3339))
	s.audit.Record(ctx, b.ID, model.LogReschedule, desc, before, snapshot(updated), actor)
	s.notify(ctx, updated, queue.EventRescheduled, actor, before.Status, desc, "")
	return updated, nil
}

// ScheduleInput is a captain's direct move of a booking.
type ScheduleInput struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	VesselID *string   `json:"vessel_id"`
}

// UpdateSchedule moves a booking without going through offers.  The status
// is kept; the first move records the original schedule.
func (s *BookingService) UpdateSchedule(ctx context.Context, captainID, bookingID string, in ScheduleInput) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.update_schedule", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	b, err = s.GetForCaptain(ctx, captainID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, ErrBookingLocked
	}
	if in.Start.IsZero() {
		return nil, invalid("start", "is required")
	}
	end := in.End
	if end.IsZero() {
		end = in.Start.Add(b.Duration())
	}
	if !end.After(in.Start) {
		return nil, invalid("end", "must be after start")
	}
	vesselID := b.VesselID
	if in.VesselID != nil && *in.VesselID != "" && *in.VesselID != b.VesselID {
		if _, err := s.vesselFor(ctx, captainID, *in.VesselID, b.PartySize); err != nil {
			return nil, err
		}
		vesselID = *in.VesselID
	}
	profile, loc, err := s.avail.profile(ctx, captainID)
	if err != nil {
		return nil, err
	}
	res, err := s.avail.check(ctx, captainID, loc, in.Start, end)
	if err != nil {
		return nil, err
	}
	if !res.Available {
		return nil, &UnavailableError{Reason: res.Reason}
	}
	before := snapshot(b)
	conflicts, err := s.bookings.Reschedule(ctx, repository.Reschedule{
		BookingID: b.ID, FromStatus: b.Status, ToStatus: b.Status,
		VesselID: vesselID, Start: in.Start, End: end, Buffer: profile.Buffer(), Now: s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Conflicts: conflicts}
		}
		return nil, bookingErr(err)
	}
	updated, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, bookingErr(err)
	}
	actor := model.CaptainActor(captainID)
	desc := fmt.Sprintf("Captain moved trip to %s", updated.ScheduledStart.Format(time.RFC3339))
	s.audit.Record(ctx, b.ID, model.LogReschedule, desc, before, snapshot(updated), actor)
	s.notify(ctx, updated, queue.EventRescheduled, actor, before.Status, desc, "")
	return updated, nil
}

// RequestDifferentDates records the guest's free-text request when none of
// the offers work.  The booking stays on hold and no offer is consumed.
func (s *BookingService) RequestDifferentDates(ctx context.Context, token, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return invalid("message", "is required")
	}
	if len(message) > 2000 {
		return invalid("message", "must be at most 2000 characters")
	}
	b, err := s.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if b.Status != model.StatusWeatherHold {
		return ErrNotOnHold
	}
	actor := model.GuestActor(b.ID)
	s.audit.Record(ctx, b.ID, model.LogDateRequest, "Guest requested different dates",
		nil, map[string]string{"message": message}, actor)
	s.notify(ctx, b, queue.EventDateRequested, actor, "", "Guest requested different dates", message)
	return nil
}
