package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// ScheduleSource reads weekly schedule rows.
type ScheduleSource interface {
	GetByStaffAndWeekday(ctx context.Context, staffID string, weekday domain.Weekday) (*domain.WorkSchedule, error)
}

// BookedSource lists the times already held by active appointments.
type BookedSource interface {
	ListActiveTimes(ctx context.Context, staffID string, date time.Time) ([]domain.TimeOfDay, error)
}

// Resolver derives the bookable slots for a staff member on a date.
//
// Results are advisory: a concurrent writer may take a slot between this read
// and a commit, so the booking path re-checks at write time.
type Resolver struct {
	schedules ScheduleSource
	bookings  BookedSource
}

// NewResolver constructs a resolver.
func NewResolver(schedules ScheduleSource, bookings BookedSource) *Resolver {
	return &Resolver{schedules: schedules, bookings: bookings}
}

// ScheduleFor returns the schedule row of the date's weekday, or nil when none exists.
func (r *Resolver) ScheduleFor(ctx context.Context, staffID string, date time.Time) (*domain.WorkSchedule, error) {
	ws, err := r.schedules.GetByStaffAndWeekday(ctx, staffID, domain.WeekdayOf(date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("availability: load schedule: %w", err)
	}
	return ws, nil
}

// FreeSlots returns generated slots minus the times of active appointments.
func (r *Resolver) FreeSlots(ctx context.Context, staffID string, date time.Time) ([]domain.TimeOfDay, error) {
	ws, err := r.ScheduleFor(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	slots := GenerateSlots(ws)
	if len(slots) == 0 {
		return slots, nil
	}

	taken, err := r.bookings.ListActiveTimes(ctx, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("availability: list booked times: %w", err)
	}
	return subtract(slots, taken), nil
}

// FreeSlotsAt is FreeSlots with slots at or before now removed.
func (r *Resolver) FreeSlotsAt(ctx context.Context, staffID string, date, now time.Time) ([]domain.TimeOfDay, error) {
	slots, err := r.FreeSlots(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	future := slots[:0]
	for _, slot := range slots {
		if slot.On(date, now.Location()).After(now) {
			future = append(future, slot)
		}
	}
	return future, nil
}

func subtract(slots, taken []domain.TimeOfDay) []domain.TimeOfDay {
	if len(taken) == 0 {
		return slots
	}
	busy := make(map[domain.TimeOfDay]struct{}, len(taken))
	for _, t := range taken {
		busy[t] = struct{}{}
	}
	free := make([]domain.TimeOfDay, 0, len(slots))
	for _, slot := range slots {
		if _, ok := busy[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free
}
