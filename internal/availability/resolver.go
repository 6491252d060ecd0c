// Package availability decides whether a proposed trip fits a captain's
// weekly calendar.  It is pure: callers load the rules and pass an explicit
// location, so the same inputs always give the same answer.
package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// ErrInvalidRange is returned when the proposed end is not after its start.
var ErrInvalidRange = errors.New("scheduled end must be after scheduled start")

// Rules is the calendar configuration of one captain.  Windows may contain
// rows for any weekday, active or not; Check picks the relevant ones.
type Rules struct {
	Windows   []model.AvailabilityWindow
	Blackouts []model.BlackoutDate
}

// Result is the outcome of a check.  Reason is set whenever Available is
// false and is meant for display to guests.
type Result struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func open() Result { return Result{Available: true} }

func closed(format string, args ...any) Result {
	return Result{Available: false, Reason: fmt.Sprintf(format, args...)}
}

// Check evaluates [start, end) against the rules in loc.  "Not available" is
// a normal result; an error means the input itself is invalid.
func Check(rules Rules, loc *time.Location, start, end time.Time) (Result, error) {
	if loc == nil {
		return Result{}, errors.New("availability: location is required")
	}
	if !end.After(start) {
		return Result{}, ErrInvalidRange
	}
	localStart := start.In(loc)
	localEnd := end.In(loc)
	date := localStart.Format(model.DateLayout)

	for _, b := range rules.Blackouts {
		if b.Date == date {
			msg := fmt.Sprintf("Captain is not taking trips on %s", localStart.Format("Monday, January 2, 2006"))
			if b.Reason != nil && strings.TrimSpace(*b.Reason) != "" {
				msg += ": " + strings.TrimSpace(*b.Reason)
			}
			return Result{Available: false, Reason: msg}, nil
		}
	}

	weekday := int(localStart.Weekday())
	dayName := localStart.Weekday().String()
	var configured, active []model.AvailabilityWindow
	for _, w := range rules.Windows {
		if w.DayOfWeek != weekday {
			continue
		}
		configured = append(configured, w)
		if w.IsActive {
			active = append(active, w)
		}
	}
	// No rows at all for the day means the captain never restricted it.
	if len(configured) == 0 {
		return open(), nil
	}
	if len(active) == 0 {
		return closed("Captain does not run trips on %ss", dayName), nil
	}

	s := model.ClockOf(localStart)
	e := model.ClockOf(localEnd) + model.ClockTime(daysBetween(localStart, localEnd)*24*3600)
	for _, w := range active {
		if w.Contains(s, e) {
			return open(), nil
		}
	}
	return explain(active, dayName, s, e), nil
}

// explain builds the rejection reason against the nearest window boundary.
func explain(active []model.AvailabilityWindow, dayName string, s, e model.ClockTime) Result {
	sort.Slice(active, func(i, j int) bool { return active[i].StartTime < active[j].StartTime })
	opening := active[0].StartTime
	closing := active[0].EndTime
	for _, w := range active[1:] {
		if w.EndTime > closing {
			closing = w.EndTime
		}
	}

	switch {
	case s < opening:
		return closed("Trips on %s start at %s or later; the requested start of %s is %s too early",
			dayName, opening.Display(), s.Display(), humanDuration(opening-s))
	case s >= closing:
		return closed("Trips on %s must start before %s; the requested start of %s is %s after closing",
			dayName, closing.Display(), s.Display(), humanDuration(s-closing))
	}
	for _, w := range active {
		if s >= w.StartTime && s < w.EndTime && e > w.EndTime {
			return closed("Trips on %s must finish by the %s closing time; this trip would end at %s, %s past closing",
				dayName, w.EndTime.Display(), e.Display(), humanDuration(e-w.EndTime))
		}
	}
	spans := make([]string, 0, len(active))
	for _, w := range active {
		spans = append(spans, w.StartTime.Display()+"–"+w.EndTime.Display())
	}
	return closed("The requested time %s–%s does not fit %s availability (%s)",
		s.Display(), e.Display(), dayName, strings.Join(spans, ", "))
}

// daysBetween counts calendar days from a to b, both already in the same
// location.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// humanDuration renders seconds as "1 hour 30 minutes", "45 minutes", etc.
func humanDuration(c model.ClockTime) string {
	total := int(c)
	if total < 60 {
		return "less than a minute"
	}
	h, m := total/3600, (total%3600)/60
	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
