package availability

import "github.com/spec-kit/appointment-service/internal/domain"

// GenerateSlots returns the ordered slot start times of a weekday schedule.
//
// Slots start at StartTime and step by SlotIntervalMinutes while strictly before
// EndTime, so an interval that does not divide the window leaves no partial slot.
// Any slot t with BreakStart <= t < BreakEnd is dropped. A nil schedule or a
// non-working day yields an empty result.
func GenerateSlots(ws *domain.WorkSchedule) []domain.TimeOfDay {
	if ws == nil || !ws.IsWorking || ws.StartTime == nil || ws.EndTime == nil || ws.SlotIntervalMinutes == nil {
		return []domain.TimeOfDay{}
	}
	step := *ws.SlotIntervalMinutes
	if step <= 0 {
		return []domain.TimeOfDay{}
	}

	slots := make([]domain.TimeOfDay, 0, (int(*ws.EndTime)-int(*ws.StartTime))/step+1)
	for t := *ws.StartTime; t < *ws.EndTime; t += domain.TimeOfDay(step) {
		if ws.DuringBreak(t) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// IsSlotBoundary reports whether t is one of the generated slots of ws.
func IsSlotBoundary(ws *domain.WorkSchedule, t domain.TimeOfDay) bool {
	if !ws.WithinHours(t) || ws.DuringBreak(t) || ws.SlotIntervalMinutes == nil || *ws.SlotIntervalMinutes <= 0 {
		return false
	}
	return (int(t)-int(*ws.StartTime))%*ws.SlotIntervalMinutes == 0
}
