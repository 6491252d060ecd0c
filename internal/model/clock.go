package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a local wall-clock time of day, stored as seconds since
// midnight.  It carries no date and no zone.
type ClockTime int

const secondsPerDay = 24 * 60 * 60

// ParseClock accepts "HH:MM" or "HH:MM:SS" (the MySQL TIME text form).
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = n
	}
	h, m, sec := vals[0], vals[1], vals[2]
	if m > 59 || sec > 59 || h > 24 || (h == 24 && (m > 0 || sec > 0)) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return ClockTime(h*3600 + m*60 + sec), nil
}

// ClockOf returns the wall-clock time of t in t's own location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c ClockTime) hms() (int, int, int) {
	v := int(c)
	return v / 3600, (v % 3600) / 60, v % 60
}

// String renders the time as HH:MM, or HH:MM:SS when seconds are set.
func (c ClockTime) String() string {
	h, m, s := c.hms()
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// SQL renders the value for a MySQL TIME column.
func (c ClockTime) SQL() string {
	h, m, s := c.hms()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Display renders a 12-hour clock label such as "6:00 PM".  Values past
// midnight (possible for computed trip ends) wrap around.
func (c ClockTime) Display() string {
	v := int(c) % secondsPerDay
	if v < 0 {
		v += secondsPerDay
	}
	t := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(v) * time.Second)
	return t.Format("3:04 PM")
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
