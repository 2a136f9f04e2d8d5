package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/availability"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

const (
	maxCustomerNameLength = 100
	maxNotesLength        = 500
)

// CreateBookingInput is the raw customer request.
type CreateBookingInput struct {
	CustomerName  string
	CustomerPhone string
	StaffID       string
	Date          string
	Time          string
	Notes         string
}

// validatedBooking is a request that passed every rule.
type validatedBooking struct {
	customerName string
	phone        string
	staffID      string
	date         time.Time
	at           domain.TimeOfDay
	notes        string
	schedule     *domain.WorkSchedule
}

func (v validatedBooking) appointment(status domain.AppointmentStatus) *domain.Appointment {
	return &domain.Appointment{
		CustomerName:  v.customerName,
		CustomerPhone: v.phone,
		StaffID:       v.staffID,
		Date:          v.date,
		Time:          v.at,
		Notes:         v.notes,
		Status:        status,
	}
}

// BookingValidator applies the booking rules in a fixed order and stops at
// the first failure.
type BookingValidator struct {
	staff        repository.StaffRepository
	schedules    availability.ScheduleSource
	appointments repository.AppointmentRepository
	countryCode  string
	loc          *time.Location
	now          func() time.Time
	storeTimeout time.Duration
}

func (v *BookingValidator) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, v.storeTimeout)
}

// Validate checks input for a new booking, or for an edit of excludeID when it is non-empty.
func (v *BookingValidator) Validate(ctx context.Context, input CreateBookingInput, excludeID string) (*validatedBooking, error) {
	req, err := v.parse(input)
	if err != nil {
		return nil, err
	}

	phone, ok := NormalizePhone(input.CustomerPhone, v.countryCode)
	if !ok {
		return nil, apperrors.NewInvalidInput("customer_phone", "customer_phone must be a valid mobile number")
	}
	req.phone = phone

	existing, err := v.findActiveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != excludeID {
		return nil, apperrors.NewDuplicateActiveBooking(existing.ID)
	}

	if !req.at.On(req.date, v.loc).After(v.now().In(v.loc)) {
		return nil, apperrors.NewPastDateTime(req.date.Format(domain.DateLayout) + " " + req.at.String())
	}

	conflict, err := v.findActiveBySlot(ctx, req, excludeID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, apperrors.NewSlotConflict(conflict.ID)
	}

	if err := v.checkSchedule(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (v *BookingValidator) parse(input CreateBookingInput) (*validatedBooking, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, apperrors.NewInvalidInput("customer_name", "customer_name is required")
	}
	if utf8.RuneCountInString(name) > maxCustomerNameLength {
		return nil, apperrors.NewInvalidInput("customer_name", "customer_name is too long")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return nil, apperrors.NewInvalidInput("customer_phone", "customer_phone is required")
	}
	staffID := strings.TrimSpace(input.StaffID)
	if staffID == "" {
		return nil, apperrors.NewInvalidInput("staff_id", "staff_id is required")
	}
	if _, err := uuid.Parse(staffID); err != nil {
		return nil, apperrors.NewInvalidInput("staff_id", "staff_id is malformed")
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, apperrors.NewInvalidInput("date", "date is required")
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, apperrors.NewInvalidInput("date", "date must be formatted as YYYY-MM-DD")
	}
	if strings.TrimSpace(input.Time) == "" {
		return nil, apperrors.NewInvalidInput("time", "time is required")
	}
	at, err := domain.ParseTimeOfDay(input.Time)
	if err != nil {
		return nil, apperrors.NewInvalidInput("time", "time must be formatted as HH:MM")
	}
	notes := strings.TrimSpace(input.Notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, apperrors.NewInvalidInput("notes", "notes are too long")
	}
	return &validatedBooking{
		customerName: name,
		staffID:      staffID,
		date:         date,
		at:           at,
		notes:        notes,
	}, nil
}

func (v *BookingValidator) findActiveByPhone(ctx context.Context, phone string) (*domain.Appointment, error) {
	ctx, cancel := v.storeCtx(ctx)
	defer cancel()
	appt, err := v.appointments.FindActiveByPhone(ctx, phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return appt, err
}

func (v *BookingValidator) findActiveBySlot(ctx context.Context, req *validatedBooking, excludeID string) (*domain.Appointment, error) {
	ctx, cancel := v.storeCtx(ctx)
	defer cancel()
	appt, err := v.appointments.FindActiveBySlot(ctx, req.staffID, req.date, req.at, excludeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return appt, err
}

func (v *BookingValidator) checkSchedule(ctx context.Context, req *validatedBooking) error {
	ctx, cancel := v.storeCtx(ctx)
	defer cancel()

	staff, err := v.staff.GetByID(ctx, req.staffID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !staff.Active) {
		return apperrors.NewNotFound("staff member", map[string]any{"staff_id": req.staffID})
	}
	if err != nil {
		return err
	}

	weekday := domain.WeekdayOf(req.date)
	ws, err := v.schedules.GetByStaffAndWeekday(ctx, req.staffID, weekday)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if ws == nil || !ws.IsWorking {
		return apperrors.NewStaffNotWorking(req.staffID, string(weekday))
	}
	if !ws.WithinHours(req.at) {
		return apperrors.NewOutsideWorkingHours(req.at.String(), ws.StartTime.String(), ws.EndTime.String())
	}
	if ws.DuringBreak(req.at) {
		return apperrors.NewDuringBreak(req.at.String(), ws.BreakStart.String(), ws.BreakEnd.String())
	}
	if !availability.IsSlotBoundary(ws, req.at) {
		return apperrors.NewInvalidInput("time", "time must match a slot boundary")
	}
	req.schedule = ws
	return nil
}
