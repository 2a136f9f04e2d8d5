package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/appointment-service/internal/domain"
)

var scheduleRowColumns = []string{
	"id", "staff_id", "weekday", "is_working", "start_time", "end_time", "slot_interval_minutes",
	"break_start", "break_end", "created_at", "updated_at",
}

func TestWorkScheduleRepositoryScansNullableColumns(t *testing.T) {
	mock := newMock(t)
	repo := NewWorkScheduleRepository(mock)
	stamp := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM work_schedules WHERE staff_id").
		WithArgs("staff-1", domain.WeekdayMonday).
		WillReturnRows(pgxmock.NewRows(scheduleRowColumns).AddRow(
			"ws-1", "staff-1", domain.WeekdayMonday, true,
			toPGTime(domain.NewTimeOfDay(9, 0)), toPGTime(domain.NewTimeOfDay(17, 0)),
			pgtype.Int4{Int32: 30, Valid: true},
			pgtype.Time{}, pgtype.Time{},
			stamp, stamp,
		))

	ws, err := repo.GetByStaffAndWeekday(context.Background(), "staff-1", domain.WeekdayMonday)
	require.NoError(t, err)
	require.NotNil(t, ws.StartTime)
	assert.Equal(t, domain.NewTimeOfDay(9, 0), *ws.StartTime)
	assert.Equal(t, domain.NewTimeOfDay(17, 0), *ws.EndTime)
	require.NotNil(t, ws.SlotIntervalMinutes)
	assert.Equal(t, 30, *ws.SlotIntervalMinutes)
	assert.Nil(t, ws.BreakStart)
	assert.False(t, ws.HasBreak())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkScheduleRepositoryUpsertOffDay(t *testing.T) {
	mock := newMock(t)
	repo := NewWorkScheduleRepository(mock)
	stamp := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	ws := &domain.WorkSchedule{StaffID: "staff-1", Weekday: domain.WeekdaySunday}

	mock.ExpectQuery("ON CONFLICT \\(staff_id, weekday\\) DO UPDATE").
		WithArgs("staff-1", domain.WeekdaySunday, false, pgtype.Time{}, pgtype.Time{}, (*int)(nil), pgtype.Time{}, pgtype.Time{}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("ws-7", stamp, stamp))

	require.NoError(t, repo.Upsert(context.Background(), ws))
	assert.Equal(t, "ws-7", ws.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
