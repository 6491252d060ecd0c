package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"06:00", 6 * 3600, false},
		{"18:30:15", 18*3600 + 30*60 + 15, false},
		{"24:00", 24 * 3600, false},
		{"24:01", 0, true},
		{"7", 0, true},
		{"12:60", 0, true},
		{"ab:cd", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseClock(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClockDisplay(t *testing.T) {
	if got := ClockTime(18 * 3600).Display(); got != "6:00 PM" {
		t.Errorf("Display = %q", got)
	}
	if got := ClockTime(0).Display(); got != "12:00 AM" {
		t.Errorf("Display(midnight) = %q", got)
	}
	if got := ClockTime(25 * 3600).Display(); got != "1:00 AM" {
		t.Errorf("Display(next day) = %q", got)
	}
}

func TestClockOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2025, 3, 3, 22, 15, 0, 0, time.UTC)
	if got := ClockOf(ts.In(loc)); got != ClockTime(17*3600+15*60) {
		t.Errorf("ClockOf = %s", got)
	}
}

func TestClockJSON(t *testing.T) {
	var w AvailabilityWindow
	if err := json.Unmarshal([]byte(`{"day_of_week":1,"start_time":"06:00","end_time":"18:00","is_active":true}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.StartTime != 6*3600 || w.EndTime != 18*3600 {
		t.Fatalf("window = %+v", w)
	}
	b, _ := json.Marshal(w.EndTime)
	if string(b) != `"18:00"` {
		t.Errorf("marshal = %s", b)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 6, 2, h, 0, 0, 0, time.UTC) }
	if !Overlaps(at(10), at(12), at(11), at(13)) {
		t.Error("10-12 and 11-13 overlap")
	}
	if Overlaps(at(10), at(12), at(12), at(14)) {
		t.Error("touching intervals do not overlap")
	}
	if !Overlaps(at(10), at(14), at(11), at(12)) {
		t.Error("containment overlaps")
	}
}
