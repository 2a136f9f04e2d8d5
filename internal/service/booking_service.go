package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/availability"
	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/events"
	"github.com/spec-kit/appointment-service/internal/observability"
	"github.com/spec-kit/appointment-service/internal/repository"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

var codePattern = regexp.MustCompile(`^[1-9]\d{5}$`)

// BookingService coordinates availability, booking creation and the
// appointment lifecycle.
type BookingService struct {
	appointments repository.AppointmentRepository
	history      repository.AppointmentHistoryRepository
	resolver     *availability.Resolver
	validator    *BookingValidator
	codes        *CodeGenerator
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	loc          *time.Location
	now          func() time.Time
	storeTimeout time.Duration
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	HistoryRepo     repository.AppointmentHistoryRepository
	StaffRepo       repository.StaffRepository
	ScheduleRepo    repository.WorkScheduleRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Location        *time.Location
	Clock           func() time.Time
}

// BookingRef addresses an appointment by id (operators) or code (customers).
type BookingRef struct {
	ID   string
	Code string
}

// UpdateBookingInput holds the fields an operator edit changes; nil leaves a field as is.
type UpdateBookingInput struct {
	CustomerName  *string
	CustomerPhone *string
	StaffID       *string
	Date          *string
	Time          *string
	Notes         *string
	Status        *domain.AppointmentStatus
}

// BookingFilter describes operator listing filters.
type BookingFilter struct {
	StaffID  *string
	DateFrom *time.Time
	DateTo   *time.Time
	Statuses []domain.AppointmentStatus
	Phone    *string
	Limit    int
	Offset   int
}

// NewBookingService constructs the service.
func NewBookingService(cfg config.BookingConfig, deps BookingDependencies) *BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	s := &BookingService{
		appointments: deps.AppointmentRepo,
		history:      deps.HistoryRepo,
		resolver:     availability.NewResolver(deps.ScheduleRepo, deps.AppointmentRepo),
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		loc:          loc,
		now:          now,
		storeTimeout: cfg.StoreTimeout(),
	}
	s.validator = &BookingValidator{
		staff:        deps.StaffRepo,
		schedules:    deps.ScheduleRepo,
		appointments: deps.AppointmentRepo,
		countryCode:  cfg.PhoneCountryCode,
		loc:          loc,
		now:          now,
		storeTimeout: s.storeTimeout,
	}
	s.codes = NewCodeGenerator(s.codeExists, cfg.CodeMaxAttempts)
	return s
}

// GetAvailability lists the free, not yet started slots of a staff member on date.
func (s *BookingService) GetAvailability(ctx context.Context, staffID string, date time.Time) ([]domain.TimeOfDay, error) {
	if _, err := uuid.Parse(staffID); err != nil {
		return nil, apperrors.NewInvalidInput("staff_id", "staff_id is malformed")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	staff, err := s.validator.staff.GetByID(ctx, staffID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !staff.Active) {
		return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": staffID})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	slots, err := s.resolver.FreeSlotsAt(ctx, staffID, date, s.now().In(s.loc))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return slots, nil
}

// CreateBooking validates input, allocates a code and persists a PENDING appointment
// on behalf of actor.
func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (appt *domain.Appointment, err error) {
	defer func() {
		if err != nil {
			s.metrics.BookingRejected(apperrors.ToDomainError(err).Code)
		}
	}()

	req, err := s.validator.Validate(ctx, input, "")
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var budget Budget
	for {
		code, err := s.codes.Next(ctx, &budget)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		appt = req.appointment(domain.AppointmentStatusPending)
		appt.Code = code

		err = s.withStore(ctx, func(ctx context.Context) error {
			return s.appointments.Create(ctx, appt)
		})
		if errors.Is(err, repository.ErrCodeTaken) {
			s.logger.Debug("booking code taken at insert, drawing again", zap.Int("attempts", budget.Used()))
			continue
		}
		if err != nil {
			return nil, s.mapWriteError(ctx, err, appt.CustomerPhone)
		}
		break
	}

	s.metrics.BookingCreated()
	s.metrics.CodeAttempts(budget.Used())
	s.recordHistory(ctx, appt.ID, actor, domain.ChangeTypeCreated, nil, snapshot(appt))
	s.publishEvent(ctx, events.Event{
		Type:          events.EventAppointmentCreated,
		AppointmentID: appt.ID,
		Actor:         eventActor(actor),
		Payload: events.AppointmentCreatedPayload{
			Code:          appt.Code,
			CustomerName:  appt.CustomerName,
			CustomerPhone: appt.CustomerPhone,
			StaffID:       appt.StaffID,
			Date:          appt.Date.Format(domain.DateLayout),
			Time:          appt.Time.String(),
		},
	})
	s.logger.Info("appointment created",
		zap.String("appointment_id", appt.ID),
		zap.String("staff_id", appt.StaffID),
		zap.String("date", appt.Date.Format(domain.DateLayout)),
		zap.String("time", appt.Time.String()))
	return appt, nil
}

// GetByCode returns the appointment holding code, in any status.
func (s *BookingService) GetByCode(ctx context.Context, code string) (*domain.Appointment, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return nil, apperrors.NewInvalidInput("code", "code must be six digits")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	appt, err := s.appointments.GetByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, "appointment", "code", code)
	}
	return appt, nil
}

// GetByID returns an appointment for operators.
func (s *BookingService) GetByID(ctx context.Context, actor domain.Actor, id string) (*domain.Appointment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.getByID(ctx, id)
}

func (s *BookingService) getByID(ctx context.Context, id string) (*domain.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("appointment", map[string]any{"id": id})
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "appointment", "id", id)
	}
	return appt, nil
}

// TransitionBooking moves an appointment to next if the lifecycle and the actor allow it.
func (s *BookingService) TransitionBooking(ctx context.Context, ref BookingRef, next domain.AppointmentStatus, actor domain.Actor) (*domain.Appointment, error) {
	var (
		appt *domain.Appointment
		err  error
	)
	switch {
	case ref.Code != "":
		appt, err = s.GetByCode(ctx, ref.Code)
	case ref.ID != "" && actor.IsAdmin():
		appt, err = s.getByID(ctx, ref.ID)
	case ref.ID != "":
		return nil, apperrors.NewForbidden("customers must present their booking code")
	default:
		return nil, apperrors.NewInvalidInput("code", "booking reference is required")
	}
	if err != nil {
		return nil, err
	}

	from := appt.Status
	if err := CheckTransition(from, next, actor); err != nil {
		return nil, err
	}
	appt.Status = next
	err = s.withStore(ctx, func(ctx context.Context) error {
		return s.appointments.UpdateStatus(ctx, appt, from)
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		current := from
		if latest, getErr := s.getByID(ctx, appt.ID); getErr == nil {
			current = latest.Status
		}
		return nil, apperrors.NewInvalidTransition(string(current), string(next))
	}
	if err != nil {
		return nil, s.mapWriteError(ctx, err, appt.CustomerPhone)
	}

	s.metrics.Transition(string(from), string(next), string(actor.Role))
	s.recordHistory(ctx, appt.ID, actor, domain.ChangeTypeStatus,
		map[string]any{"status": from}, map[string]any{"status": next})
	s.publishStatusChange(ctx, appt, from, actor)
	return appt, nil
}

// UpdateBooking applies an operator edit. Changes to staff, date, time or
// phone of an active appointment are re-validated against the schedule and
// the other active appointments.
func (s *BookingService) UpdateBooking(ctx context.Context, actor domain.Actor, id string, input UpdateBookingInput) (*domain.Appointment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := existing.Status
	if input.Status != nil && *input.Status != existing.Status {
		if err := CheckTransition(existing.Status, *input.Status, actor); err != nil {
			return nil, err
		}
		target = *input.Status
	}

	merged := CreateBookingInput{
		CustomerName:  pick(input.CustomerName, existing.CustomerName),
		CustomerPhone: pick(input.CustomerPhone, existing.CustomerPhone),
		StaffID:       pick(input.StaffID, existing.StaffID),
		Date:          pick(input.Date, existing.Date.Format(domain.DateLayout)),
		Time:          pick(input.Time, existing.Time.String()),
		Notes:         pick(input.Notes, existing.Notes),
	}

	var req *validatedBooking
	if target.IsActive() && reschedules(existing, merged) {
		req, err = s.validator.Validate(ctx, merged, existing.ID)
	} else {
		req, err = s.validator.parse(merged)
		if err == nil {
			phone, ok := NormalizePhone(merged.CustomerPhone, s.validator.countryCode)
			if !ok {
				err = apperrors.NewInvalidInput("customer_phone", "customer_phone must be a valid mobile number")
			}
			req.phone = phone
		}
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	updated := req.appointment(target)
	updated.ID = existing.ID
	updated.Code = existing.Code
	updated.CreatedAt = existing.CreatedAt
	err = s.withStore(ctx, func(ctx context.Context) error {
		return s.appointments.Update(ctx, updated, existing.Status)
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, apperrors.NewConflict("appointment changed concurrently", map[string]any{"id": id})
	}
	if err != nil {
		return nil, s.mapWriteError(ctx, err, updated.CustomerPhone)
	}

	before, after := diff(snapshot(existing), snapshot(updated))
	if len(after) > 0 {
		s.recordHistory(ctx, updated.ID, actor, domain.ChangeTypeEdit, before, after)
		changed := make([]string, 0, len(after))
		for field := range after {
			changed = append(changed, field)
		}
		s.publishEvent(ctx, events.Event{
			Type:          events.EventAppointmentUpdated,
			AppointmentID: updated.ID,
			Actor:         eventActor(actor),
			Payload:       events.AppointmentUpdatedPayload{Changed: changed},
		})
	}
	if updated.Status != existing.Status {
		s.metrics.Transition(string(existing.Status), string(updated.Status), string(actor.Role))
		s.publishStatusChange(ctx, updated, existing.Status, actor)
	}
	return updated, nil
}

// DeleteBooking physically removes an appointment and its history.
func (s *BookingService) DeleteBooking(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound("appointment", map[string]any{"id": id})
	}
	err := s.withStore(ctx, func(ctx context.Context) error {
		return s.appointments.Delete(ctx, id)
	})
	if err != nil {
		return notFound(err, "appointment", "id", id)
	}
	s.logger.Info("appointment deleted", zap.String("appointment_id", id), zap.String("actor", actor.SubjectID))
	return nil
}

// ListBookings returns appointments matching filter for operators.
func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor, filter BookingFilter) ([]domain.Appointment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.StaffID != nil {
		if _, err := uuid.Parse(*filter.StaffID); err != nil {
			return nil, apperrors.NewInvalidInput("staff_id", "staff_id is malformed")
		}
	}
	repoFilter := repository.AppointmentFilter{
		StaffID:  filter.StaffID,
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if filter.Phone != nil {
		phone, ok := NormalizePhone(*filter.Phone, s.validator.countryCode)
		if !ok {
			return nil, apperrors.NewInvalidInput("phone", "phone must be a valid mobile number")
		}
		repoFilter.Phone = &phone
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	result, err := s.appointments.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ListHistory returns the audit trail of an appointment.
func (s *BookingService) ListHistory(ctx context.Context, actor domain.Actor, id string) ([]domain.AppointmentHistory, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.getByID(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.AppointmentHistory{}, nil
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	entries, err := s.history.ListByAppointment(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *BookingService) codeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.appointments.CodeExists(ctx, code)
}

func (s *BookingService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *BookingService) withStore(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return fn(ctx)
}

// mapWriteError turns store conflicts into the matching booking errors.
func (s *BookingService) mapWriteError(ctx context.Context, err error, phone string) error {
	var conflict *repository.ConflictError
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		existingID := ""
		if errors.As(err, &conflict) {
			existingID = conflict.ExistingID
		}
		return apperrors.NewSlotConflict(existingID)
	case errors.Is(err, repository.ErrActiveBookingExists):
		existingID := ""
		if errors.As(err, &conflict) {
			existingID = conflict.ExistingID
		}
		if existingID == "" {
			if existing, findErr := s.validator.findActiveByPhone(ctx, phone); findErr == nil && existing != nil {
				existingID = existing.ID
			}
		}
		return apperrors.NewDuplicateActiveBooking(existingID)
	default:
		return apperrors.MapError(err)
	}
}

func (s *BookingService) recordHistory(ctx context.Context, appointmentID string, actor domain.Actor, change domain.AppointmentChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.AppointmentHistory{
		AppointmentID: appointmentID,
		ActorRole:     actor.Role,
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	err := s.withStore(ctx, func(ctx context.Context) error {
		return s.history.Create(ctx, entry)
	})
	if err != nil {
		s.logger.Warn("failed to record appointment history",
			zap.String("appointment_id", appointmentID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func (s *BookingService) publishStatusChange(ctx context.Context, appt *domain.Appointment, from domain.AppointmentStatus, actor domain.Actor) {
	s.publishEvent(ctx, events.Event{
		Type:          events.EventAppointmentStatusChanged,
		AppointmentID: appt.ID,
		Actor:         eventActor(actor),
		Payload: events.AppointmentStatusChangedPayload{
			Code:          appt.Code,
			CustomerName:  appt.CustomerName,
			CustomerPhone: appt.CustomerPhone,
			Date:          appt.Date.Format(domain.DateLayout),
			Time:          appt.Time.String(),
			OldStatus:     from,
			NewStatus:     appt.Status,
		},
	})
}

func (s *BookingService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{Role: actor.Role, SubjectID: actor.SubjectID}
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func notFound(err error, resource, key, value string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{key: value})
	}
	return apperrors.MapError(err)
}

func pick(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func reschedules(existing *domain.Appointment, merged CreateBookingInput) bool {
	if strings.TrimSpace(merged.StaffID) != existing.StaffID ||
		strings.TrimSpace(merged.Date) != existing.Date.Format(domain.DateLayout) ||
		strings.TrimSpace(merged.Time) != existing.Time.String() {
		return true
	}
	return merged.CustomerPhone != existing.CustomerPhone
}

func snapshot(appt *domain.Appointment) map[string]any {
	return map[string]any{
		"customer_name":  appt.CustomerName,
		"customer_phone": appt.CustomerPhone,
		"staff_id":       appt.StaffID,
		"date":           appt.Date.Format(domain.DateLayout),
		"time":           appt.Time.String(),
		"notes":          appt.Notes,
		"status":         string(appt.Status),
	}
}

func diff(before, after map[string]any) (map[string]any, map[string]any) {
	oldValues := map[string]any{}
	newValues := map[string]any{}
	for key, value := range after {
		if before[key] != value {
			oldValues[key] = before[key]
			newValues[key] = value
		}
	}
	return oldValues, newValues
}
