package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/appointment-service/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleAppointment() *domain.Appointment {
	return &domain.Appointment{
		Code:          "482913",
		CustomerName:  "Ayse Yilmaz",
		CustomerPhone: "5321234567",
		StaffID:       "staff-1",
		Date:          time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Time:          domain.NewTimeOfDay(10, 0),
		Status:        domain.AppointmentStatusPending,
	}
}

func expectLockAndFreeSlot(mock pgxmock.PgxPoolIface, appt *domain.Appointment, excludeID string) {
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("staff-1|2026-10-19|10:00").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT id FROM appointments").
		WithArgs(appt.StaffID, appt.Date, toPGTime(appt.Time), excludeID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
}

func TestAppointmentRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	appt := sampleAppointment()
	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectLockAndFreeSlot(mock, appt, "")
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(appt.Code, appt.CustomerName, appt.CustomerPhone, appt.StaffID, appt.Date, toPGTime(appt.Time), appt.Notes, appt.Status).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("appt-1", created, created))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), appt))
	assert.Equal(t, "appt-1", appt.ID)
	assert.Equal(t, created, appt.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateSlotTakenInsideTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	appt := sampleAppointment()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("staff-1|2026-10-19|10:00").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT id FROM appointments").
		WithArgs(appt.StaffID, appt.Date, toPGTime(appt.Time), "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("appt-existing"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), appt)
	require.ErrorIs(t, err, ErrSlotTaken)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "appt-existing", conflict.ExistingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateMapsUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{constraintActiveSlot, ErrSlotTaken},
		{constraintActivePhone, ErrActiveBookingExists},
		{constraintCode, ErrCodeTaken},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			mock := newMock(t)
			repo := NewAppointmentRepository(mock)
			appt := sampleAppointment()

			mock.ExpectBegin()
			expectLockAndFreeSlot(mock, appt, "")
			mock.ExpectQuery("INSERT INTO appointments").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})
			mock.ExpectRollback()

			err := repo.Create(context.Background(), appt)
			require.ErrorIs(t, err, tc.want)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAppointmentRepositoryUpdateStatusCompareAndSet(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	appt := sampleAppointment()
	appt.ID = "appt-1"
	appt.Status = domain.AppointmentStatusConfirmed

	mock.ExpectQuery("UPDATE appointments SET status").
		WithArgs(domain.AppointmentStatusConfirmed, "appt-1", domain.AppointmentStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	err := repo.UpdateStatus(context.Background(), appt, domain.AppointmentStatusPending)
	require.ErrorIs(t, err, ErrStatusChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateExcludesOwnRow(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	appt := sampleAppointment()
	appt.ID = "appt-1"
	updated := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectLockAndFreeSlot(mock, appt, "appt-1")
	mock.ExpectQuery("UPDATE appointments SET customer_name").
		WithArgs(appt.CustomerName, appt.CustomerPhone, appt.StaffID, appt.Date, toPGTime(appt.Time), appt.Notes,
			appt.Status, "appt-1", domain.AppointmentStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), appt, domain.AppointmentStatusPending))
	assert.Equal(t, updated, appt.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryDeleteMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)

	mock.ExpectExec("DELETE FROM appointments").WithArgs("nope").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListActiveTimes(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT appointment_time FROM appointments").
		WithArgs("staff-1", date).
		WillReturnRows(pgxmock.NewRows([]string{"appointment_time"}).
			AddRow(toPGTime(domain.NewTimeOfDay(9, 0))).
			AddRow(toPGTime(domain.NewTimeOfDay(10, 30))))

	times, err := repo.ListActiveTimes(context.Background(), "staff-1", date)
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeOfDay{domain.NewTimeOfDay(9, 0), domain.NewTimeOfDay(10, 30)}, times)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListWithFilterBindsArguments(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	staffID := "staff-1"
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`staff_id=\$1 AND appointment_date >= \$2 AND status IN \(\$3,\$4\)`).
		WithArgs(staffID, from, domain.AppointmentStatusPending, domain.AppointmentStatusConfirmed).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "code", "customer_name", "customer_phone", "staff_id", "appointment_date", "appointment_time",
			"notes", "status", "created_at", "updated_at",
		}).AddRow("appt-1", "482913", "Ayse Yilmaz", "5321234567", staffID, from,
			toPGTime(domain.NewTimeOfDay(9, 30)), "", domain.AppointmentStatusPending, created, created))

	result, err := repo.ListWithFilter(context.Background(), AppointmentFilter{
		StaffID:  &staffID,
		DateFrom: &from,
		Statuses: []domain.AppointmentStatus{domain.AppointmentStatusPending, domain.AppointmentStatusConfirmed},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, domain.NewTimeOfDay(9, 30), result[0].Time)
	assert.Equal(t, domain.AppointmentStatusPending, result[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
