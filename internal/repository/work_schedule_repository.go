package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// WorkScheduleRepository reads and maintains weekly schedules. A missing row
// is reported as pgx.ErrNoRows.
type WorkScheduleRepository interface {
	GetByStaffAndWeekday(ctx context.Context, staffID string, weekday domain.Weekday) (*domain.WorkSchedule, error)
	ListByStaff(ctx context.Context, staffID string) ([]domain.WorkSchedule, error)
	Upsert(ctx context.Context, ws *domain.WorkSchedule) error
}

type workScheduleRepository struct {
	db DB
}

// NewWorkScheduleRepository instantiates the repository.
func NewWorkScheduleRepository(db DB) WorkScheduleRepository {
	return &workScheduleRepository{db: db}
}

const workScheduleColumns = `id, staff_id, weekday, is_working, start_time, end_time, slot_interval_minutes,
               break_start, break_end, created_at, updated_at`

func (r *workScheduleRepository) GetByStaffAndWeekday(ctx context.Context, staffID string, weekday domain.Weekday) (*domain.WorkSchedule, error) {
	query := `SELECT ` + workScheduleColumns + ` FROM work_schedules WHERE staff_id=$1 AND weekday=$2`
	return scanWorkSchedule(r.db.QueryRow(ctx, query, staffID, weekday))
}

func (r *workScheduleRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.WorkSchedule, error) {
	query := `SELECT ` + workScheduleColumns + ` FROM work_schedules WHERE staff_id=$1
        ORDER BY array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY']::varchar[], weekday)`
	rows, err := r.db.Query(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkSchedule
	for rows.Next() {
		ws, err := scanWorkSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ws)
	}
	return result, rows.Err()
}

func (r *workScheduleRepository) Upsert(ctx context.Context, ws *domain.WorkSchedule) error {
	const query = `
        INSERT INTO work_schedules (staff_id, weekday, is_working, start_time, end_time, slot_interval_minutes, break_start, break_end)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (staff_id, weekday) DO UPDATE
        SET is_working=EXCLUDED.is_working, start_time=EXCLUDED.start_time, end_time=EXCLUDED.end_time,
            slot_interval_minutes=EXCLUDED.slot_interval_minutes, break_start=EXCLUDED.break_start,
            break_end=EXCLUDED.break_end, updated_at=NOW()
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		ws.StaffID,
		ws.Weekday,
		ws.IsWorking,
		toNullablePGTime(ws.StartTime),
		toNullablePGTime(ws.EndTime),
		ws.SlotIntervalMinutes,
		toNullablePGTime(ws.BreakStart),
		toNullablePGTime(ws.BreakEnd),
	).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
}

func scanWorkSchedule(row pgx.Row) (*domain.WorkSchedule, error) {
	var (
		ws                               domain.WorkSchedule
		start, end, breakStart, breakEnd pgtype.Time
		interval                         pgtype.Int4
	)
	if err := row.Scan(
		&ws.ID,
		&ws.StaffID,
		&ws.Weekday,
		&ws.IsWorking,
		&start,
		&end,
		&interval,
		&breakStart,
		&breakEnd,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ws.StartTime = fromNullablePGTime(start)
	ws.EndTime = fromNullablePGTime(end)
	ws.BreakStart = fromNullablePGTime(breakStart)
	ws.BreakEnd = fromNullablePGTime(breakEnd)
	if interval.Valid {
		minutes := int(interval.Int32)
		ws.SlotIntervalMinutes = &minutes
	}
	return &ws, nil
}
