package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// PaymentInput is a payment processor result.  DepositPaidCents nil keeps
// the stored amount.
type PaymentInput struct {
	BookingID        string
	PaymentStatus    model.PaymentStatus
	DepositPaidCents *int64
	Reference        string
}

type paymentSnapshot struct {
	PaymentStatus    model.PaymentStatus `json:"payment_status"`
	DepositPaidCents int64               `json:"deposit_paid_cents"`
	BalanceDueCents  int64               `json:"balance_due_cents"`
	Reference        string              `json:"reference,omitempty"`
}

// ApplyPayment reconciles payment fields.  It is allowed in every status,
// terminal ones included.  A pending_deposit booking whose deposit is now
// covered is confirmed by the system.
func (s *BookingService) ApplyPayment(ctx context.Context, in PaymentInput) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.apply_payment",
		trace.WithAttributes(attribute.String("booking.id", in.BookingID), attribute.String("payment.status", string(in.PaymentStatus))))
	defer func() { endSpan(span, err) }()

	if in.BookingID == "" {
		return nil, invalid("booking_id", "is required")
	}
	if !in.PaymentStatus.Valid() {
		return nil, invalid("payment_status", "unknown payment status %q", in.PaymentStatus)
	}
	b, err = s.bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, bookingErr(err)
	}
	deposit := b.DepositPaidCents
	if in.DepositPaidCents != nil {
		deposit = *in.DepositPaidCents
	}
	if deposit < 0 {
		return nil, invalid("deposit_paid_cents", "must not be negative")
	}
	before := paymentSnapshot{PaymentStatus: b.PaymentStatus, DepositPaidCents: b.DepositPaidCents, BalanceDueCents: b.BalanceDueCents}
	after := paymentSnapshot{
		PaymentStatus:    in.PaymentStatus,
		DepositPaidCents: deposit,
		BalanceDueCents:  model.BalanceFor(b.TotalPriceCents, deposit, in.PaymentStatus),
		Reference:        in.Reference,
	}
	if err := s.bookings.UpdatePayment(ctx, repository.PaymentUpdate{
		BookingID:        b.ID,
		PaymentStatus:    after.PaymentStatus,
		DepositPaidCents: after.DepositPaidCents,
		BalanceDueCents:  after.BalanceDueCents,
	}); err != nil {
		return nil, bookingErr(err)
	}
	b.PaymentStatus = after.PaymentStatus
	b.DepositPaidCents = after.DepositPaidCents
	b.BalanceDueCents = after.BalanceDueCents

	desc := fmt.Sprintf("Payment status %s -> %s", before.PaymentStatus, after.PaymentStatus)
	s.audit.Record(ctx, b.ID, model.LogPayment, desc, before, after, model.SystemActor())
	s.notify(ctx, b, queue.EventPayment, model.SystemActor(), "", desc, "")

	if b.Status == model.StatusPendingDeposit && b.PaymentStatus.CoversDeposit() {
		err := s.transition(ctx, b, model.StatusConfirmed, model.SystemActor(), model.LogStatusChange, "deposit received", nil)
		if err != nil && !errors.Is(err, ErrStaleBooking) {
			return nil, err
		}
		if err != nil {
			s.log.Info("payment: booking changed before auto-confirm", zap.String("booking_id", b.ID))
		}
	}
	return b, nil
}

// HandlePaymentMessage decodes a queue.PaymentEvent and applies it.  It is
// the handler of the payment worker.
func (s *BookingService) HandlePaymentMessage(ctx context.Context, body []byte) error {
	var ev queue.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal payment event: %w", err)
	}
	ps, err := model.ParsePaymentStatus(strings.ToLower(ev.PaymentStatus))
	if err != nil {
		return err
	}
	_, err = s.ApplyPayment(ctx, PaymentInput{
		BookingID: ev.BookingID, PaymentStatus: ps, DepositPaidCents: ev.DepositPaidCents, Reference: ev.Reference,
	})
	return err
}

// SweepResult summarizes an expiry sweep.
type SweepResult struct {
	Expired int
	Skipped int
}

// ExpireStaleDeposits moves every pending_deposit booking whose deposit
// window has lapsed to expired.  A booking that changed in the meantime is
// skipped; other failures are collected and the sweep goes on.
func (s *BookingService) ExpireStaleDeposits(ctx context.Context, batch int) (res SweepResult, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.expire_stale_deposits")
	defer func() { endSpan(span, err) }()

	stale, err := s.bookings.ListStaleDeposits(ctx, s.now(), s.opts.DepositWindow, batch)
	if err != nil {
		return res, err
	}
	var errs []error
	for i := range stale {
		b := &stale[i]
		terr := s.transition(ctx, b, model.StatusExpired, model.SystemActor(), model.LogStatusChange, "deposit not received in time", nil)
		switch {
		case terr == nil:
			res.Expired++
		case errors.Is(terr, ErrStaleBooking):
			res.Skipped++
		default:
			s.log.Error("sweep: expire failed", zap.String("booking_id", b.ID), zap.Error(terr))
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, terr))
		}
	}
	s.log.Info("sweep: finished", zap.Int("expired", res.Expired), zap.Int("skipped", res.Skipped), zap.Int("failed", len(errs)))
	return res, errors.Join(errs...)
}
