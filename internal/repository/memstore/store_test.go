package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
)

func booking(code, phone string, at domain.TimeOfDay) *domain.Appointment {
	return &domain.Appointment{
		Code:          code,
		CustomerName:  "Test Customer",
		CustomerPhone: phone,
		StaffID:       "staff-1",
		Date:          time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Time:          at,
		Status:        domain.AppointmentStatusPending,
	}
}

func TestAppointmentsEnforceUniqueness(t *testing.T) {
	ctx := context.Background()
	appts := New().Appointments()

	first := booking("100001", "5321234567", domain.NewTimeOfDay(9, 0))
	require.NoError(t, appts.Create(ctx, first))

	err := appts.Create(ctx, booking("100002", "5329999999", domain.NewTimeOfDay(9, 0)))
	require.ErrorIs(t, err, repository.ErrSlotTaken)

	err = appts.Create(ctx, booking("100003", "5321234567", domain.NewTimeOfDay(10, 0)))
	require.ErrorIs(t, err, repository.ErrActiveBookingExists)

	err = appts.Create(ctx, booking("100001", "5320000000", domain.NewTimeOfDay(11, 0)))
	require.ErrorIs(t, err, repository.ErrCodeTaken)
}

func TestPhoneConflictWinsOverSlotConflict(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		appts := New().Appointments()
		owner := booking("100001", "5321234567", domain.NewTimeOfDay(9, 0))
		require.NoError(t, appts.Create(ctx, owner))
		require.NoError(t, appts.Create(ctx, booking("100002", "5329999999", domain.NewTimeOfDay(10, 0))))

		err := appts.Create(ctx, booking("100003", "5321234567", domain.NewTimeOfDay(10, 0)))
		require.ErrorIs(t, err, repository.ErrActiveBookingExists)

		var conflict *repository.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, owner.ID, conflict.ExistingID)
	}
}

func TestCancelledAppointmentReleasesSlot(t *testing.T) {
	ctx := context.Background()
	appts := New().Appointments()

	first := booking("100001", "5321234567", domain.NewTimeOfDay(9, 0))
	require.NoError(t, appts.Create(ctx, first))

	first.Status = domain.AppointmentStatusCancelled
	require.NoError(t, appts.UpdateStatus(ctx, first, domain.AppointmentStatusPending))

	times, err := appts.ListActiveTimes(ctx, "staff-1", first.Date)
	require.NoError(t, err)
	assert.Empty(t, times)

	require.NoError(t, appts.Create(ctx, booking("100002", "5321234567", domain.NewTimeOfDay(9, 0))))
}

func TestUpdateStatusRejectsStaleStatus(t *testing.T) {
	ctx := context.Background()
	appts := New().Appointments()

	appt := booking("100001", "5321234567", domain.NewTimeOfDay(9, 0))
	require.NoError(t, appts.Create(ctx, appt))

	appt.Status = domain.AppointmentStatusCompleted
	err := appts.UpdateStatus(ctx, appt, domain.AppointmentStatusConfirmed)
	require.ErrorIs(t, err, repository.ErrStatusChanged)
}

func TestDeleteCascadesHistory(t *testing.T) {
	ctx := context.Background()
	store := New()

	appt := booking("100001", "5321234567", domain.NewTimeOfDay(9, 0))
	require.NoError(t, store.Appointments().Create(ctx, appt))
	require.NoError(t, store.History().Create(ctx, &domain.AppointmentHistory{
		AppointmentID: appt.ID,
		ActorRole:     domain.ActorRoleCustomer,
		ChangeType:    domain.ChangeTypeCreated,
	}))

	require.NoError(t, store.Appointments().Delete(ctx, appt.ID))
	entries, err := store.History().ListByAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = store.Appointments().GetByID(ctx, appt.ID)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestStaffListOrdersByRankThenName(t *testing.T) {
	ctx := context.Background()
	staff := New().Staff()
	for _, member := range []domain.StaffMember{
		{Name: "Zeynep", Rank: 1, Active: true},
		{Name: "Ali", Rank: 2, Active: true},
		{Name: "Burak", Rank: 1, Active: false},
		{Name: "Can", Rank: 1, Active: true},
	} {
		m := member
		require.NoError(t, staff.Create(ctx, &m))
	}

	active := true
	list, err := staff.List(ctx, repository.StaffFilter{Active: &active})
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, m := range list {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Can", "Zeynep", "Ali"}, names)
}
