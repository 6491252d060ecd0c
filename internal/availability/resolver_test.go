package availability

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

func clock(t *testing.T, s string) model.ClockTime {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return c
}

func window(t *testing.T, day int, start, end string, active bool) model.AvailabilityWindow {
	return model.AvailabilityWindow{DayOfWeek: day, StartTime: clock(t, start), EndTime: clock(t, end), IsActive: active}
}

// 2025-06-02 is a Monday.
func monday(loc *time.Location, h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, loc)
}

func TestCheck_NoWindowsIsUnrestricted(t *testing.T) {
	res, err := Check(Rules{}, time.UTC, monday(time.UTC, 3, 0), monday(time.UTC, 5, 0))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Available || res.Reason != "" {
		t.Fatalf("expected available with no reason, got %+v", res)
	}
}

func TestCheck_OtherDaysDoNotRestrict(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 2, "08:00", "10:00", true)}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 20, 0), monday(time.UTC, 22, 0))
	if !res.Available {
		t.Fatalf("Tuesday window must not restrict Monday: %+v", res)
	}
}

func TestCheck_InsideWindow(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 1, "06:00", "18:00", true)}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 6, 0), monday(time.UTC, 18, 0))
	if !res.Available {
		t.Fatalf("exact fit should be available: %+v", res)
	}
}

func TestCheck_EndsPastClosing(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 1, "06:00", "18:00", true)}}
	res, err := Check(rules, time.UTC, monday(time.UTC, 17, 0), monday(time.UTC, 19, 0))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Available {
		t.Fatal("17:00-19:00 must not fit a 06:00-18:00 window")
	}
	if !strings.Contains(res.Reason, "6:00 PM") || !strings.Contains(res.Reason, "1 hour past closing") {
		t.Fatalf("reason should name closing time and overshoot, got %q", res.Reason)
	}
}

func TestCheck_StartsTooEarly(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 1, "06:00", "18:00", true)}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 4, 30), monday(time.UTC, 7, 0))
	if res.Available || !strings.Contains(res.Reason, "1 hour 30 minutes too early") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCheck_StartsAfterClosing(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 1, "06:00", "18:00", true)}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 18, 45), monday(time.UTC, 20, 0))
	if res.Available || !strings.Contains(res.Reason, "45 minutes after closing") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCheck_SplitWindows(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{
		window(t, 1, "06:00", "11:00", true),
		window(t, 1, "15:00", "19:00", true),
	}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 15, 30), monday(time.UTC, 18, 0))
	if !res.Available {
		t.Fatalf("evening slot should fit the second window: %+v", res)
	}
	res, _ = Check(rules, time.UTC, monday(time.UTC, 11, 30), monday(time.UTC, 13, 0))
	if res.Available || !strings.Contains(res.Reason, "does not fit Monday availability") {
		t.Fatalf("gap between windows should be rejected, got %+v", res)
	}
	res, _ = Check(rules, time.UTC, monday(time.UTC, 10, 0), monday(time.UTC, 12, 0))
	if res.Available || !strings.Contains(res.Reason, "11:00 AM closing time") {
		t.Fatalf("morning overrun should reference the morning window, got %+v", res)
	}
}

func TestCheck_DayExplicitlyOff(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 1, "06:00", "18:00", false)}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 9, 0), monday(time.UTC, 10, 0))
	if res.Available || res.Reason != "Captain does not run trips on Mondays" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCheck_InactiveWindowIgnoredWhenActiveExists(t *testing.T) {
	rules := Rules{Windows: []model.AvailabilityWindow{
		window(t, 1, "00:00", "23:59", false),
		window(t, 1, "08:00", "12:00", true),
	}}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 13, 0), monday(time.UTC, 14, 0))
	if res.Available {
		t.Fatal("inactive window must not open the calendar")
	}
}

func TestCheck_BlackoutShortCircuits(t *testing.T) {
	reason := "Boat in the yard"
	rules := Rules{
		Windows:   []model.AvailabilityWindow{window(t, 1, "06:00", "18:00", true)},
		Blackouts: []model.BlackoutDate{{Date: "2025-06-02", Reason: &reason}},
	}
	res, _ := Check(rules, time.UTC, monday(time.UTC, 9, 0), monday(time.UTC, 11, 0))
	if res.Available {
		t.Fatal("blackout date must reject")
	}
	if !strings.Contains(res.Reason, "Monday, June 2, 2025") || !strings.HasSuffix(res.Reason, "Boat in the yard") {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	// Blackouts apply even without windows.
	res, _ = Check(Rules{Blackouts: rules.Blackouts}, time.UTC, monday(time.UTC, 9, 0), monday(time.UTC, 11, 0))
	if res.Available {
		t.Fatal("blackout must reject an unrestricted day")
	}
}

func TestCheck_UsesCaptainTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Sunday window only; 2025-06-02 01:00 UTC is Sunday 21:00 in New York.
	rules := Rules{Windows: []model.AvailabilityWindow{window(t, 0, "18:00", "23:00", true)}}
	start := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	res, _ := Check(rules, ny, start, start.Add(90*time.Minute))
	if !res.Available {
		t.Fatalf("expected Sunday evening in New York to be available: %+v", res)
	}
	// The same instant read in UTC is a Monday with no configuration.
	blackout := Rules{Blackouts: []model.BlackoutDate{{Date: "2025-06-01"}}}
	res, _ = Check(blackout, ny, start, start.Add(time.Hour))
	if res.Available {
		t.Fatal("blackout must match the local date, not the UTC date")
	}
}

func TestCheck_InvalidRange(t *testing.T) {
	_, err := Check(Rules{}, time.UTC, monday(time.UTC, 10, 0), monday(time.UTC, 10, 0))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestHumanDuration(t *testing.T) {
	cases := map[model.ClockTime]string{
		30:          "less than a minute",
		60:          "1 minute",
		45 * 60:     "45 minutes",
		3600:        "1 hour",
		2*3600 + 60: "2 hours 1 minute",
	}
	for in, want := range cases {
		if got := humanDuration(in); got != want {
			t.Errorf("humanDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
