// Package notifier turns booking events into guest and captain messages
// and hands them to a delivery gateway.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/queue"
)

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelCaptain Channel = "captain" // captain dashboard inbox, addressed by captain id
)

// Message is one rendered notification.
type Message struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}

// Gateway delivers messages.  Email and SMS providers implement it outside
// this repository.
type Gateway interface {
	Send(ctx context.Context, m Message) error
}

// LogGateway writes messages to the log instead of delivering them.
type LogGateway struct {
	Log *zap.Logger
}

func (g LogGateway) Send(_ context.Context, m Message) error {
	g.Log.Info("notify",
		zap.String("channel", string(m.Channel)),
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body))
	return nil
}

// Dispatcher renders booking events and sends them through a Gateway.
type Dispatcher struct {
	gw  Gateway
	log *zap.Logger
}

func NewDispatcher(gw Gateway, log *zap.Logger) *Dispatcher {
	return &Dispatcher{gw: gw, log: log}
}

// Handle is a queue.Handler for the notify worker.  An undecodable body is
// logged and dropped; a gateway failure is returned so the delivery is
// rejected.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	var ev queue.BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		d.log.Warn("notify: dropping malformed event", zap.Error(err))
		return nil
	}
	msgs := Render(ev)
	if len(msgs) == 0 {
		d.log.Debug("notify: nothing to send", zap.String("type", ev.Type), zap.String("booking_id", ev.BookingID))
		return nil
	}
	var errs []error
	for _, m := range msgs {
		if err := d.gw.Send(ctx, m); err != nil {
			errs = append(errs, fmt.Errorf("%s to %s: %w", m.Channel, m.To, err))
		}
	}
	return errors.Join(errs...)
}

// Render builds the messages for ev.  Guests are reached on every contact
// they left; the captain is told about guest actions.
func Render(ev queue.BookingEvent) []Message {
	subject, body, toCaptain := compose(ev)
	if subject == "" {
		return nil
	}
	var out []Message
	if toCaptain {
		out = append(out, Message{Channel: ChannelCaptain, To: ev.CaptainID, Subject: subject, Body: body})
		return out
	}
	if ev.GuestEmail != "" {
		out = append(out, Message{Channel: ChannelEmail, To: ev.GuestEmail, Subject: subject, Body: body})
	}
	if ev.GuestPhone != "" {
		out = append(out, Message{Channel: ChannelSMS, To: ev.GuestPhone, Subject: subject, Body: subject + ". " + body})
	}
	return out
}

func compose(ev queue.BookingEvent) (subject, body string, toCaptain bool) {
	when := tripRange(ev)
	switch ev.Type {
	case queue.EventCreated:
		return "Your charter is booked", fmt.Sprintf("Hi %s, your trip on %s is %s.", ev.GuestName, when, human(ev.ToStatus)), false
	case queue.EventWeatherHold:
		return "Weather hold on your charter", fmt.Sprintf("Your trip on %s is on hold: %s. Your captain will send new dates.", when, ev.Message), false
	case queue.EventOffersCreated:
		return "New dates for your charter", "Your captain proposed new dates. Open your booking link to pick one.", false
	case queue.EventRescheduled:
		return "Your charter was moved", fmt.Sprintf("Your trip is now on %s.", when), false
	case queue.EventStatusChanged:
		if ev.ActorType == "guest" {
			return "Guest cancelled", fmt.Sprintf("%s cancelled the trip on %s. %s", ev.GuestName, when, ev.Description), true
		}
		return "Charter " + human(ev.ToStatus), fmt.Sprintf("Your trip on %s is now %s.", when, human(ev.ToStatus)), false
	case queue.EventDateRequested:
		return "Guest asked for different dates", fmt.Sprintf("%s (trip on %s) wrote: %s", ev.GuestName, when, ev.Message), true
	}
	return "", "", false
}

func tripRange(ev queue.BookingEvent) string {
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil || ev.Timezone == "" {
		loc = time.UTC
	}
	s, e := ev.ScheduledStart.In(loc), ev.ScheduledEnd.In(loc)
	return fmt.Sprintf("%s %s-%s", s.Format("Mon Jan 2"), s.Format("15:04"), e.Format("15:04 MST"))
}

func human(status string) string {
	switch status {
	case "pending_deposit":
		return "awaiting deposit"
	case "no_show":
		return "marked as a no-show"
	case "weather_hold":
		return "on weather hold"
	}
	return status
}
