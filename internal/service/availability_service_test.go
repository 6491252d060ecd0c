package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/charter-booking/internal/repository"
)

func TestIsAvailable_NoWindowsMeansOpen(t *testing.T) {
	h := newHarness(t)
	res, err := h.avail.IsAvailable(context.Background(), captainID, monday(10, 0), monday(12, 0))
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !res.Available {
		t.Fatalf("expected available, got %q", res.Reason)
	}
}

func TestIsAvailable_Blackout(t *testing.T) {
	h := newHarness(t)
	reason := "haul-out"
	if _, err := h.avail.AddBlackout(context.Background(), captainID, "2025-06-02", &reason); err != nil {
		t.Fatalf("AddBlackout: %v", err)
	}
	res, err := h.avail.IsAvailable(context.Background(), captainID, monday(10, 0), monday(12, 0))
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if res.Available {
		t.Fatal("blackout date must be unavailable")
	}
}

func TestIsAvailable_UnknownCaptain(t *testing.T) {
	h := newHarness(t)
	var ve *ValidationError
	if _, err := h.avail.IsAvailable(context.Background(), "ghost", monday(10, 0), monday(12, 0)); !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestReplaceWindows(t *testing.T) {
	h := newHarness(t)
	ws, err := h.avail.ReplaceWindows(context.Background(), captainID, []WindowInput{
		{DayOfWeek: 1, StartTime: clock(t, "06:00"), EndTime: clock(t, "12:00")},
		{DayOfWeek: 1, StartTime: clock(t, "13:00"), EndTime: clock(t, "18:00")},
	})
	if err != nil {
		t.Fatalf("ReplaceWindows: %v", err)
	}
	if len(ws) != 2 || !ws[0].IsActive {
		t.Fatalf("windows = %+v", ws)
	}

	bad := [][]WindowInput{
		{{DayOfWeek: 7, StartTime: clock(t, "06:00"), EndTime: clock(t, "12:00")}},
		{{DayOfWeek: 1, StartTime: clock(t, "12:00"), EndTime: clock(t, "06:00")}},
		{
			{DayOfWeek: 2, StartTime: clock(t, "06:00"), EndTime: clock(t, "12:00")},
			{DayOfWeek: 2, StartTime: clock(t, "11:00"), EndTime: clock(t, "14:00")},
		},
	}
	for i, in := range bad {
		var ve *ValidationError
		if _, err := h.avail.ReplaceWindows(context.Background(), captainID, in); !errors.As(err, &ve) {
			t.Errorf("case %d: err = %v, want ValidationError", i, err)
		}
	}
}

func TestBlackouts(t *testing.T) {
	h := newHarness(t)
	b, err := h.avail.AddBlackout(context.Background(), captainID, "2025-07-04", nil)
	if err != nil {
		t.Fatalf("AddBlackout: %v", err)
	}
	if _, err := h.avail.AddBlackout(context.Background(), captainID, "2025-07-04", nil); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
	var ve *ValidationError
	if _, err := h.avail.AddBlackout(context.Background(), captainID, "July 4th", nil); !errors.As(err, &ve) {
		t.Fatalf("bad date err = %v, want ValidationError", err)
	}
	list, err := h.avail.ListBlackouts(context.Background(), captainID, "2025-07-01", "2025-07-31")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListBlackouts = %v, %v", list, err)
	}
	if err := h.avail.DeleteBlackout(context.Background(), otherCap, b.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("foreign delete err = %v, want ErrForbidden", err)
	}
	if err := h.avail.DeleteBlackout(context.Background(), captainID, b.ID); err != nil {
		t.Fatalf("DeleteBlackout: %v", err)
	}
}
