package repository

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/appointment-service/internal/domain"
)

type countingSchedules struct {
	rows   map[domain.Weekday]domain.WorkSchedule
	reads  int
	onRead func()
}

func (c *countingSchedules) GetByStaffAndWeekday(_ context.Context, _ string, weekday domain.Weekday) (*domain.WorkSchedule, error) {
	c.reads++
	ws, ok := c.rows[weekday]
	if hook := c.onRead; hook != nil {
		c.onRead = nil
		hook()
	}
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ws, nil
}

func (c *countingSchedules) ListByStaff(context.Context, string) ([]domain.WorkSchedule, error) {
	return nil, nil
}

func (c *countingSchedules) Upsert(_ context.Context, ws *domain.WorkSchedule) error {
	c.rows[ws.Weekday] = *ws
	return nil
}

func newCachedSchedules(t *testing.T) (*countingSchedules, WorkScheduleRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	start, end, interval := domain.NewTimeOfDay(9, 0), domain.NewTimeOfDay(17, 0), 30
	next := &countingSchedules{rows: map[domain.Weekday]domain.WorkSchedule{
		domain.WeekdayMonday: {
			StaffID: "staff-1", Weekday: domain.WeekdayMonday, IsWorking: true,
			StartTime: &start, EndTime: &end, SlotIntervalMinutes: &interval,
		},
	}}
	return next, NewCachedWorkScheduleRepository(next, client, time.Minute, nil), mr
}

func TestCachedScheduleServesRepeatReadsFromRedis(t *testing.T) {
	next, cached, mr := newCachedSchedules(t)
	ctx := context.Background()

	first, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	second, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)

	assert.Equal(t, 1, next.reads)
	assert.Equal(t, *first.StartTime, *second.StartTime)
	assert.Equal(t, *first.SlotIntervalMinutes, *second.SlotIntervalMinutes)
	assert.True(t, mr.Exists("schedule:staff-1:MONDAY"))
}

func TestCachedScheduleRemembersMissingRows(t *testing.T) {
	next, cached, _ := newCachedSchedules(t)
	ctx := context.Background()

	_, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdaySunday)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdaySunday)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, 1, next.reads)
}

func TestCachedScheduleUpsertInvalidates(t *testing.T) {
	next, cached, mr := newCachedSchedules(t)
	ctx := context.Background()

	_, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	require.NoError(t, cached.Upsert(ctx, &domain.WorkSchedule{StaffID: "staff-1", Weekday: domain.WeekdayMonday}))
	assert.False(t, mr.Exists("schedule:staff-1:MONDAY"))

	ws, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	assert.False(t, ws.IsWorking)
	assert.Equal(t, 2, next.reads)
}

func TestCachedScheduleDropsReadRacingUpsert(t *testing.T) {
	next, cached, mr := newCachedSchedules(t)
	ctx := context.Background()

	next.onRead = func() {
		require.NoError(t, cached.Upsert(ctx, &domain.WorkSchedule{
			StaffID: "staff-1", Weekday: domain.WeekdayMonday, IsWorking: false,
		}))
	}

	stale, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	assert.True(t, stale.IsWorking)
	assert.False(t, mr.Exists("schedule:staff-1:MONDAY"))

	fresh, err := cached.GetByStaffAndWeekday(ctx, "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	assert.False(t, fresh.IsWorking)
	assert.Equal(t, 2, next.reads)
}

func TestCachedScheduleFallsThroughWhenRedisDown(t *testing.T) {
	next, cached, mr := newCachedSchedules(t)
	mr.Close()

	ws, err := cached.GetByStaffAndWeekday(context.Background(), "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	assert.True(t, ws.IsWorking)
	assert.Equal(t, 1, next.reads)
}
