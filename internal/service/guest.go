package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/utils"
)

// GetByToken resolves a guest management token to its booking.  Unknown
// and expired tokens both report ErrBookingNotFound.
func (s *BookingService) GetByToken(ctx context.Context, token string) (*model.Booking, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrBookingNotFound
	}
	id, err := s.tokens.Resolve(ctx, utils.HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, bookingErr(err)
	}
	return b, nil
}

// ListOffersByToken returns the offers a guest can still act on: expired
// offers and offers from an earlier hold are left out.
func (s *BookingService) ListOffersByToken(ctx context.Context, token string) ([]model.RescheduleOffer, error) {
	b, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	all, err := s.offers.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.RescheduleOffer, 0, len(all))
	for _, o := range all {
		if o.Current() && !o.Expired(now) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CancelByToken lets the guest cancel through the management link.  The
// lifecycle rules apply exactly as for captains.
func (s *BookingService) CancelByToken(ctx context.Context, token, reason string) (*model.Booking, error) {
	b, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	note := "cancelled by guest"
	if r := strings.TrimSpace(reason); r != "" {
		note += ": " + r
	}
	if err := s.transition(ctx, b, model.StatusCancelled, model.GuestActor(b.ID), model.LogStatusChange, note, nil); err != nil {
		return nil, err
	}
	return b, nil
}
