package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/appointment-service/internal/domain"
)

func at(h, m int) domain.TimeOfDay { return domain.NewTimeOfDay(h, m) }

func ptr[T any](v T) *T { return &v }

func workingDay(start, end domain.TimeOfDay, interval int) *domain.WorkSchedule {
	return &domain.WorkSchedule{
		IsWorking:           true,
		StartTime:           ptr(start),
		EndTime:             ptr(end),
		SlotIntervalMinutes: ptr(interval),
	}
}

func TestGenerateSlots_WithBreak(t *testing.T) {
	ws := workingDay(at(9, 0), at(17, 0), 30)
	ws.BreakStart = ptr(at(12, 0))
	ws.BreakEnd = ptr(at(13, 0))

	slots := GenerateSlots(ws)

	want := []domain.TimeOfDay{
		at(9, 0), at(9, 30), at(10, 0), at(10, 30), at(11, 0), at(11, 30),
		at(13, 0), at(13, 30), at(14, 0), at(14, 30), at(15, 0), at(15, 30), at(16, 0), at(16, 30),
	}
	assert.Equal(t, want, slots)
	assert.NotContains(t, slots, at(12, 0))
	assert.NotContains(t, slots, at(12, 30))
	assert.NotContains(t, slots, at(17, 0))
}

func TestGenerateSlots_NotWorking(t *testing.T) {
	assert.Empty(t, GenerateSlots(&domain.WorkSchedule{IsWorking: false}))
	assert.Empty(t, GenerateSlots(nil))
}

func TestGenerateSlots_TailDropped(t *testing.T) {
	// 09:00-10:40 at 30 minutes: 10:30 starts before the end and is kept, no partial slot after it.
	slots := GenerateSlots(workingDay(at(9, 0), at(10, 40), 30))
	assert.Equal(t, []domain.TimeOfDay{at(9, 0), at(9, 30), at(10, 0), at(10, 30)}, slots)

	slots = GenerateSlots(workingDay(at(9, 0), at(11, 0), 45))
	assert.Equal(t, []domain.TimeOfDay{at(9, 0), at(9, 45), at(10, 30)}, slots)
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	ws := workingDay(at(8, 0), at(18, 0), 20)
	assert.Equal(t, GenerateSlots(ws), GenerateSlots(ws))
}

func TestGenerateSlots_Hourly(t *testing.T) {
	slots := GenerateSlots(workingDay(at(9, 0), at(17, 0), 60))
	assert.Len(t, slots, 8)
	assert.Equal(t, at(9, 0), slots[0])
	assert.Equal(t, at(16, 0), slots[7])
}

func TestIsSlotBoundary(t *testing.T) {
	ws := workingDay(at(9, 0), at(17, 0), 30)
	ws.BreakStart = ptr(at(12, 0))
	ws.BreakEnd = ptr(at(13, 0))

	assert.True(t, IsSlotBoundary(ws, at(9, 30)))
	assert.False(t, IsSlotBoundary(ws, at(9, 15)))
	assert.False(t, IsSlotBoundary(ws, at(12, 0)))
	assert.False(t, IsSlotBoundary(ws, at(17, 0)))
	assert.False(t, IsSlotBoundary(&domain.WorkSchedule{}, at(9, 0)))
}
