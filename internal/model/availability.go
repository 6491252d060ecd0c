package model

// AvailabilityWindow is a recurring weekly rule that opens a captain's
// calendar between two wall-clock times on one weekday.  Several windows per
// day are allowed; windows never cross midnight.
type AvailabilityWindow struct {
	ID        string    `json:"id"`
	CaptainID string    `json:"captain_id"`
	DayOfWeek int       `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
	IsActive  bool      `json:"is_active"`
}

// Contains reports whether the local interval [start, end) lies entirely
// inside the window.
func (w AvailabilityWindow) Contains(start, end ClockTime) bool {
	return start >= w.StartTime && end <= w.EndTime
}

// BlackoutDate closes a captain's calendar for a whole local date,
// regardless of windows.
type BlackoutDate struct {
	ID        string  `json:"id"`
	CaptainID string  `json:"captain_id"`
	Date      string  `json:"date"` // YYYY-MM-DD in the captain's zone
	Reason    *string `json:"reason,omitempty"`
}

// DateLayout is the calendar-date layout used for blackouts and list filters.
const DateLayout = "2006-01-02"
