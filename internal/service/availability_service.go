package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/availability"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// AvailabilityService answers "can this captain take a trip then?" and
// manages the captain's windows and blackout dates.
type AvailabilityService struct {
	store   AvailabilityStore
	catalog CatalogStore
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewAvailabilityService(store AvailabilityStore, catalog CatalogStore, log *zap.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, catalog: catalog, log: log, tracer: tracer()}
}

// profile loads the captain profile and its location.
func (s *AvailabilityService) profile(ctx context.Context, captainID string) (*model.CaptainProfile, *time.Location, error) {
	p, err := s.catalog.Profile(ctx, captainID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, invalid("captainId", "unknown captain")
		}
		return nil, nil, err
	}
	loc, err := p.Location()
	if err != nil {
		return nil, nil, err
	}
	return p, loc, nil
}

// IsAvailable checks [start, end) against the captain's calendar.  "Not
// available" is a normal result with a reason, not an error.
func (s *AvailabilityService) IsAvailable(ctx context.Context, captainID string, start, end time.Time) (availability.Result, error) {
	ctx, span := s.tracer.Start(ctx, "availability.is_available",
		trace.WithAttributes(attribute.String("captain.id", captainID)))
	defer span.End()

	_, loc, err := s.profile(ctx, captainID)
	if err != nil {
		return availability.Result{}, err
	}
	return s.check(ctx, captainID, loc, start, end)
}

func (s *AvailabilityService) check(ctx context.Context, captainID string, loc *time.Location, start, end time.Time) (availability.Result, error) {
	if !end.After(start) {
		return availability.Result{}, invalid("end", "must be after start")
	}
	rules, err := s.store.Rules(ctx, captainID, start.In(loc).Format(model.DateLayout))
	if err != nil {
		return availability.Result{}, err
	}
	return availability.Check(rules, loc, start, end)
}

// WindowInput is one weekly window as submitted by the captain.
type WindowInput struct {
	DayOfWeek int             `json:"day_of_week"`
	StartTime model.ClockTime `json:"start_time"`
	EndTime   model.ClockTime `json:"end_time"`
	IsActive  *bool           `json:"is_active"`
}

func (s *AvailabilityService) ListWindows(ctx context.Context, captainID string) ([]model.AvailabilityWindow, error) {
	return s.store.Windows(ctx, captainID)
}

// ReplaceWindows replaces the captain's whole weekly schedule.  Active
// windows on the same day must not overlap.
func (s *AvailabilityService) ReplaceWindows(ctx context.Context, captainID string, in []WindowInput) ([]model.AvailabilityWindow, error) {
	windows := make([]model.AvailabilityWindow, 0, len(in))
	for _, w := range in {
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return nil, invalid("day_of_week", "must be between 0 (Sunday) and 6 (Saturday)")
		}
		if w.EndTime <= w.StartTime {
			return nil, invalid("end_time", "must be after start_time; windows cannot cross midnight")
		}
		active := true
		if w.IsActive != nil {
			active = *w.IsActive
		}
		windows = append(windows, model.AvailabilityWindow{
			ID: uuid.NewString(), CaptainID: captainID, DayOfWeek: w.DayOfWeek,
			StartTime: w.StartTime, EndTime: w.EndTime, IsActive: active,
		})
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].DayOfWeek != windows[j].DayOfWeek {
			return windows[i].DayOfWeek < windows[j].DayOfWeek
		}
		return windows[i].StartTime < windows[j].StartTime
	})
	var prev *model.AvailabilityWindow
	for i := range windows {
		w := &windows[i]
		if !w.IsActive {
			continue
		}
		if prev != nil && prev.DayOfWeek == w.DayOfWeek && w.StartTime < prev.EndTime {
			return nil, invalid("windows", "active windows on %s overlap", time.Weekday(w.DayOfWeek))
		}
		prev = w
	}
	if err := s.store.ReplaceWindows(ctx, captainID, windows); err != nil {
		return nil, err
	}
	s.log.Info("availability windows replaced", zap.String("captain_id", captainID), zap.Int("count", len(windows)))
	return windows, nil
}

func (s *AvailabilityService) ListBlackouts(ctx context.Context, captainID, from, to string) ([]model.BlackoutDate, error) {
	for _, d := range []struct{ name, v string }{{"from", from}, {"to", to}} {
		if d.v == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, d.v); err != nil {
			return nil, invalid(d.name, "must be YYYY-MM-DD")
		}
	}
	return s.store.Blackouts(ctx, captainID, from, to)
}

// AddBlackout closes a whole local date.  A second blackout for the same
// date is rejected with repository.ErrConflict.
func (s *AvailabilityService) AddBlackout(ctx context.Context, captainID, date string, reason *string) (*model.BlackoutDate, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	if reason != nil {
		r := strings.TrimSpace(*reason)
		if r == "" {
			reason = nil
		} else {
			reason = &r
		}
	}
	b := &model.BlackoutDate{ID: uuid.NewString(), CaptainID: captainID, Date: date, Reason: reason}
	if err := s.store.AddBlackout(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *AvailabilityService) DeleteBlackout(ctx context.Context, captainID, id string) error {
	return s.store.DeleteBlackout(ctx, captainID, id)
}
