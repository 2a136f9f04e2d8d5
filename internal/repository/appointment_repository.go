package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// Write conflicts reported by the appointment store.
var (
	ErrSlotTaken           = errors.New("slot already booked")
	ErrActiveBookingExists = errors.New("customer already has an active appointment")
	ErrCodeTaken           = errors.New("booking code already in use")
	ErrStatusChanged       = errors.New("appointment status changed concurrently")
)

// Constraint names declared in migrations.
const (
	constraintCode        = "uq_appointments_code"
	constraintActiveSlot  = "uq_appointments_active_slot"
	constraintActivePhone = "uq_appointments_active_phone"
)

// ConflictError identifies the record a write collided with, when known.
type ConflictError struct {
	Err        error
	ExistingID string
}

func (e *ConflictError) Error() string {
	if e.ExistingID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (appointment %s)", e.Err, e.ExistingID)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// AppointmentFilter captures operator search parameters.
type AppointmentFilter struct {
	StaffID  *string
	DateFrom *time.Time
	DateTo   *time.Time
	Statuses []domain.AppointmentStatus
	Phone    *string
	Limit    int
	Offset   int
}

// AppointmentRepository is the booking store. Create and Update re-check the
// active-slot invariant inside their own transaction.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	Update(ctx context.Context, appt *domain.Appointment, expected domain.AppointmentStatus) error
	UpdateStatus(ctx context.Context, appt *domain.Appointment, from domain.AppointmentStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	GetByCode(ctx context.Context, code string) (*domain.Appointment, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	FindActiveByPhone(ctx context.Context, phone string) (*domain.Appointment, error)
	FindActiveBySlot(ctx context.Context, staffID string, date time.Time, t domain.TimeOfDay, excludeID string) (*domain.Appointment, error)
	ListActiveTimes(ctx context.Context, staffID string, date time.Time) ([]domain.TimeOfDay, error)
	ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	db DB
}

// NewAppointmentRepository instantiates repository.
func NewAppointmentRepository(db DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

const appointmentColumns = `id, code, customer_name, customer_phone, staff_id, appointment_date, appointment_time,
               notes, status, created_at, updated_at`

const activeStatusClause = `status IN ('PENDING','CONFIRMED')`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockSlot(ctx, tx, appt.StaffID, appt.Date, appt.Time); err != nil {
			return err
		}
		if err := ensureSlotFree(ctx, tx, appt.StaffID, appt.Date, appt.Time, ""); err != nil {
			return err
		}

		const query = `
        INSERT INTO appointments (code, customer_name, customer_phone, staff_id, appointment_date, appointment_time, notes, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
		err := tx.QueryRow(ctx, query,
			appt.Code,
			appt.CustomerName,
			appt.CustomerPhone,
			appt.StaffID,
			appt.Date,
			toPGTime(appt.Time),
			appt.Notes,
			appt.Status,
		).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
		if err != nil {
			return classifyWriteError(err)
		}
		return nil
	})
}

func (r *appointmentRepository) Update(ctx context.Context, appt *domain.Appointment, expected domain.AppointmentStatus) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if appt.Status.IsActive() {
			if err := lockSlot(ctx, tx, appt.StaffID, appt.Date, appt.Time); err != nil {
				return err
			}
			if err := ensureSlotFree(ctx, tx, appt.StaffID, appt.Date, appt.Time, appt.ID); err != nil {
				return err
			}
		}

		const query = `
        UPDATE appointments SET customer_name=$1, customer_phone=$2, staff_id=$3, appointment_date=$4,
            appointment_time=$5, notes=$6, status=$7, updated_at=NOW()
        WHERE id=$8 AND status=$9
        RETURNING updated_at`
		err := tx.QueryRow(ctx, query,
			appt.CustomerName,
			appt.CustomerPhone,
			appt.StaffID,
			appt.Date,
			toPGTime(appt.Time),
			appt.Notes,
			appt.Status,
			appt.ID,
			expected,
		).Scan(&appt.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStatusChanged
			}
			return classifyWriteError(err)
		}
		return nil
	})
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appt *domain.Appointment, from domain.AppointmentStatus) error {
	const query = `
        UPDATE appointments SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, appt.Status, appt.ID, from).Scan(&appt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusChanged
		}
		return classifyWriteError(err)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	return scanAppointment(r.db.QueryRow(ctx, query, id))
}

func (r *appointmentRepository) GetByCode(ctx context.Context, code string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE code=$1`
	return scanAppointment(r.db.QueryRow(ctx, query, code))
}

func (r *appointmentRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE code=$1)`, code).Scan(&exists)
	return exists, err
}

func (r *appointmentRepository) FindActiveByPhone(ctx context.Context, phone string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
        WHERE customer_phone=$1 AND ` + activeStatusClause + ` LIMIT 1`
	return scanAppointment(r.db.QueryRow(ctx, query, phone))
}

func (r *appointmentRepository) FindActiveBySlot(ctx context.Context, staffID string, date time.Time, t domain.TimeOfDay, excludeID string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
        WHERE staff_id=$1 AND appointment_date=$2 AND appointment_time=$3 AND ` + activeStatusClause + `
          AND id::text <> $4
        LIMIT 1`
	return scanAppointment(r.db.QueryRow(ctx, query, staffID, date, toPGTime(t), excludeID))
}

func (r *appointmentRepository) ListActiveTimes(ctx context.Context, staffID string, date time.Time) ([]domain.TimeOfDay, error) {
	query := `SELECT appointment_time FROM appointments
        WHERE staff_id=$1 AND appointment_date=$2 AND ` + activeStatusClause + `
        ORDER BY appointment_time`
	rows, err := r.db.Query(ctx, query, staffID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []domain.TimeOfDay
	for rows.Next() {
		var t pgtype.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, fromPGTime(t))
	}
	return times, rows.Err()
}

func (r *appointmentRepository) ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	base := `SELECT ` + appointmentColumns + ` FROM appointments`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("staff_id=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("appointment_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("appointment_date <= $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Phone != nil {
		args = append(args, *filter.Phone)
		clauses = append(clauses, fmt.Sprintf("customer_phone=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY appointment_date DESC, appointment_time DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *appt)
	}
	return result, rows.Err()
}

// lockSlot serializes writers targeting the same staff, date and time until the transaction ends.
func lockSlot(ctx context.Context, tx pgx.Tx, staffID string, date time.Time, t domain.TimeOfDay) error {
	key := fmt.Sprintf("%s|%s|%s", staffID, date.Format(domain.DateLayout), t)
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func ensureSlotFree(ctx context.Context, tx pgx.Tx, staffID string, date time.Time, t domain.TimeOfDay, excludeID string) error {
	const query = `
        SELECT id FROM appointments
        WHERE staff_id=$1 AND appointment_date=$2 AND appointment_time=$3
          AND status IN ('PENDING','CONFIRMED') AND id::text <> $4
        LIMIT 1`
	var existingID string
	err := tx.QueryRow(ctx, query, staffID, date, toPGTime(t), excludeID).Scan(&existingID)
	switch {
	case err == nil:
		return &ConflictError{Err: ErrSlotTaken, ExistingID: existingID}
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return err
	}
}

func classifyWriteError(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}
	switch constraint {
	case constraintActiveSlot:
		return &ConflictError{Err: ErrSlotTaken}
	case constraintActivePhone:
		return &ConflictError{Err: ErrActiveBookingExists}
	case constraintCode:
		return ErrCodeTaken
	default:
		return err
	}
}

func withTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		appt domain.Appointment
		t    pgtype.Time
	)
	if err := row.Scan(
		&appt.ID,
		&appt.Code,
		&appt.CustomerName,
		&appt.CustomerPhone,
		&appt.StaffID,
		&appt.Date,
		&t,
		&appt.Notes,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	appt.Time = fromPGTime(t)
	return &appt, nil
}
