package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday keys a staff member's weekly schedule rows.
type Weekday string

const (
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
	WeekdaySaturday  Weekday = "SATURDAY"
	WeekdaySunday    Weekday = "SUNDAY"
)

// Weekdays lists every weekday in calendar order starting Monday.
var Weekdays = []Weekday{
	WeekdayMonday,
	WeekdayTuesday,
	WeekdayWednesday,
	WeekdayThursday,
	WeekdayFriday,
	WeekdaySaturday,
	WeekdaySunday,
}

var fromStdWeekday = map[time.Weekday]Weekday{
	time.Monday:    WeekdayMonday,
	time.Tuesday:   WeekdayTuesday,
	time.Wednesday: WeekdayWednesday,
	time.Thursday:  WeekdayThursday,
	time.Friday:    WeekdayFriday,
	time.Saturday:  WeekdaySaturday,
	time.Sunday:    WeekdaySunday,
}

// WeekdayOf resolves the weekday of a calendar date.
func WeekdayOf(date time.Time) Weekday {
	return fromStdWeekday[date.Weekday()]
}

// ParseWeekday accepts the enum value case-insensitively.
func ParseWeekday(raw string) (Weekday, error) {
	candidate := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	for _, day := range Weekdays {
		if day == candidate {
			return day, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", raw)
}

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// MinutesPerDay bounds TimeOfDay values.
const MinutesPerDay = 24 * 60

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (seconds must be zero).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, fmt.Errorf("seconds not supported in %q", raw)
		}
	}
	return NewTimeOfDay(hour, minute), nil
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

// String formats as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On combines the time of day with a calendar date in the given location.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// WorkSchedule is one staff member's working pattern for one weekday.
type WorkSchedule struct {
	ID                  string
	StaffID             string
	Weekday             Weekday
	IsWorking           bool
	StartTime           *TimeOfDay
	EndTime             *TimeOfDay
	SlotIntervalMinutes *int
	BreakStart          *TimeOfDay
	BreakEnd            *TimeOfDay
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ErrInvalidSchedule is wrapped by every WorkSchedule.Validate failure.
var ErrInvalidSchedule = errors.New("invalid work schedule")

// HasBreak reports whether a break window is configured.
func (ws *WorkSchedule) HasBreak() bool {
	return ws != nil && ws.BreakStart != nil && ws.BreakEnd != nil
}

// Validate enforces the row invariants.
func (ws *WorkSchedule) Validate() error {
	if ws == nil {
		return fmt.Errorf("%w: missing", ErrInvalidSchedule)
	}
	if !ws.IsWorking {
		if ws.StartTime != nil || ws.EndTime != nil || ws.SlotIntervalMinutes != nil || ws.BreakStart != nil || ws.BreakEnd != nil {
			return fmt.Errorf("%w: non-working day must not carry times", ErrInvalidSchedule)
		}
		return nil
	}
	if ws.StartTime == nil || ws.EndTime == nil {
		return fmt.Errorf("%w: start and end time required", ErrInvalidSchedule)
	}
	if !ws.StartTime.Valid() || !ws.EndTime.Valid() || *ws.StartTime >= *ws.EndTime {
		return fmt.Errorf("%w: start must be before end", ErrInvalidSchedule)
	}
	if ws.SlotIntervalMinutes == nil || *ws.SlotIntervalMinutes <= 0 {
		return fmt.Errorf("%w: slot interval must be positive", ErrInvalidSchedule)
	}
	if (ws.BreakStart == nil) != (ws.BreakEnd == nil) {
		return fmt.Errorf("%w: break start and end must be set together", ErrInvalidSchedule)
	}
	if ws.HasBreak() {
		if *ws.BreakStart < *ws.StartTime || *ws.BreakStart >= *ws.BreakEnd || *ws.BreakEnd > *ws.EndTime {
			return fmt.Errorf("%w: break must lie inside working hours", ErrInvalidSchedule)
		}
	}
	return nil
}

// WithinHours reports whether t is in [start, end).
func (ws *WorkSchedule) WithinHours(t TimeOfDay) bool {
	if ws == nil || !ws.IsWorking || ws.StartTime == nil || ws.EndTime == nil {
		return false
	}
	return t >= *ws.StartTime && t < *ws.EndTime
}

// DuringBreak reports whether t is in [breakStart, breakEnd).
func (ws *WorkSchedule) DuringBreak(t TimeOfDay) bool {
	if !ws.HasBreak() {
		return false
	}
	return t >= *ws.BreakStart && t < *ws.BreakEnd
}
