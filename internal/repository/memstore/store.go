// Package memstore keeps every repository in process memory. It enforces the
// same uniqueness rules as the Postgres schema and backs local runs without a
// database as well as service and handler tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
)

// Store holds all tables behind one mutex.
type Store struct {
	mu           sync.Mutex
	staff        map[string]domain.StaffMember
	schedules    map[string]domain.WorkSchedule
	appointments map[string]domain.Appointment
	history      []domain.AppointmentHistory
	now          func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		staff:        map[string]domain.StaffMember{},
		schedules:    map[string]domain.WorkSchedule{},
		appointments: map[string]domain.Appointment{},
		now:          time.Now,
	}
}

// Staff exposes the staff table.
func (s *Store) Staff() repository.StaffRepository { return staffTable{s} }

// Schedules exposes the work schedule table.
func (s *Store) Schedules() repository.WorkScheduleRepository { return scheduleTable{s} }

// Appointments exposes the appointment table.
func (s *Store) Appointments() repository.AppointmentRepository { return appointmentTable{s} }

// History exposes the appointment history table.
func (s *Store) History() repository.AppointmentHistoryRepository { return historyTable{s} }

type staffTable struct{ s *Store }

func (t staffTable) Create(_ context.Context, staff *domain.StaffMember) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := t.s.now()
	staff.CreatedAt, staff.UpdatedAt = now, now
	t.s.staff[staff.ID] = *staff
	return nil
}

func (t staffTable) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	staff, ok := t.s.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &staff, nil
}

func (t staffTable) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var result []domain.StaffMember
	for _, staff := range t.s.staff {
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		result = append(result, staff)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Rank != result[j].Rank {
			return result[i].Rank < result[j].Rank
		}
		return result[i].Name < result[j].Name
	})
	return page(result, filter.Limit, filter.Offset, 100), nil
}

type scheduleTable struct{ s *Store }

func scheduleKey(staffID string, weekday domain.Weekday) string {
	return staffID + "|" + string(weekday)
}

func (t scheduleTable) GetByStaffAndWeekday(_ context.Context, staffID string, weekday domain.Weekday) (*domain.WorkSchedule, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ws, ok := t.s.schedules[scheduleKey(staffID, weekday)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ws, nil
}

func (t scheduleTable) ListByStaff(_ context.Context, staffID string) ([]domain.WorkSchedule, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var result []domain.WorkSchedule
	for _, day := range domain.Weekdays {
		if ws, ok := t.s.schedules[scheduleKey(staffID, day)]; ok {
			result = append(result, ws)
		}
	}
	return result, nil
}

func (t scheduleTable) Upsert(_ context.Context, ws *domain.WorkSchedule) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	key := scheduleKey(ws.StaffID, ws.Weekday)
	now := t.s.now()
	if existing, ok := t.s.schedules[key]; ok {
		ws.ID = existing.ID
		ws.CreatedAt = existing.CreatedAt
	} else {
		ws.ID = uuid.NewString()
		ws.CreatedAt = now
	}
	ws.UpdatedAt = now
	t.s.schedules[key] = *ws
	return nil
}

type appointmentTable struct{ s *Store }

// conflictLocked applies the partial unique indexes to a candidate row.
func (t appointmentTable) conflictLocked(appt *domain.Appointment) error {
	if !appt.Status.IsActive() {
		return nil
	}
	// Phone conflicts take precedence over slot conflicts.
	for id, other := range t.s.appointments {
		if id != appt.ID && other.Status.IsActive() && other.CustomerPhone == appt.CustomerPhone {
			return &repository.ConflictError{Err: repository.ErrActiveBookingExists, ExistingID: id}
		}
	}
	for id, other := range t.s.appointments {
		if id != appt.ID && other.Status.IsActive() &&
			other.StaffID == appt.StaffID && other.Date.Equal(appt.Date) && other.Time == appt.Time {
			return &repository.ConflictError{Err: repository.ErrSlotTaken, ExistingID: id}
		}
	}
	return nil
}

func (t appointmentTable) Create(_ context.Context, appt *domain.Appointment) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, other := range t.s.appointments {
		if other.Code == appt.Code {
			return repository.ErrCodeTaken
		}
	}
	appt.ID = ""
	if err := t.conflictLocked(appt); err != nil {
		return err
	}
	appt.ID = uuid.NewString()
	now := t.s.now()
	appt.CreatedAt, appt.UpdatedAt = now, now
	t.s.appointments[appt.ID] = *appt
	return nil
}

func (t appointmentTable) Update(_ context.Context, appt *domain.Appointment, expected domain.AppointmentStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	existing, ok := t.s.appointments[appt.ID]
	if !ok || existing.Status != expected {
		return repository.ErrStatusChanged
	}
	if err := t.conflictLocked(appt); err != nil {
		return err
	}
	appt.Code = existing.Code
	appt.CreatedAt = existing.CreatedAt
	appt.UpdatedAt = t.s.now()
	t.s.appointments[appt.ID] = *appt
	return nil
}

func (t appointmentTable) UpdateStatus(_ context.Context, appt *domain.Appointment, from domain.AppointmentStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	existing, ok := t.s.appointments[appt.ID]
	if !ok || existing.Status != from {
		return repository.ErrStatusChanged
	}
	existing.Status = appt.Status
	if err := t.conflictLocked(&existing); err != nil {
		return err
	}
	existing.UpdatedAt = t.s.now()
	t.s.appointments[appt.ID] = existing
	appt.UpdatedAt = existing.UpdatedAt
	return nil
}

func (t appointmentTable) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.appointments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(t.s.appointments, id)
	kept := t.s.history[:0]
	for _, entry := range t.s.history {
		if entry.AppointmentID != id {
			kept = append(kept, entry)
		}
	}
	t.s.history = kept
	return nil
}

func (t appointmentTable) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	appt, ok := t.s.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &appt, nil
}

func (t appointmentTable) GetByCode(_ context.Context, code string) (*domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, appt := range t.s.appointments {
		if appt.Code == code {
			return &appt, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t appointmentTable) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := t.GetByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (t appointmentTable) FindActiveByPhone(_ context.Context, phone string) (*domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, appt := range t.s.appointments {
		if appt.CustomerPhone == phone && appt.Status.IsActive() {
			return &appt, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t appointmentTable) FindActiveBySlot(_ context.Context, staffID string, date time.Time, at domain.TimeOfDay, excludeID string) (*domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, appt := range t.s.appointments {
		if id == excludeID || !appt.Status.IsActive() {
			continue
		}
		if appt.StaffID == staffID && appt.Date.Equal(date) && appt.Time == at {
			return &appt, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t appointmentTable) ListActiveTimes(_ context.Context, staffID string, date time.Time) ([]domain.TimeOfDay, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var times []domain.TimeOfDay
	for _, appt := range t.s.appointments {
		if appt.StaffID == staffID && appt.Date.Equal(date) && appt.Status.IsActive() {
			times = append(times, appt.Time)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times, nil
}

func (t appointmentTable) ListWithFilter(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var result []domain.Appointment
	for _, appt := range t.s.appointments {
		if matches(appt, filter) {
			result = append(result, appt)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Time > result[j].Time
	})
	return page(result, filter.Limit, filter.Offset, 50), nil
}

func matches(appt domain.Appointment, filter repository.AppointmentFilter) bool {
	if filter.StaffID != nil && appt.StaffID != *filter.StaffID {
		return false
	}
	if filter.DateFrom != nil && appt.Date.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && appt.Date.After(*filter.DateTo) {
		return false
	}
	if filter.Phone != nil && appt.CustomerPhone != *filter.Phone {
		return false
	}
	if len(filter.Statuses) > 0 {
		for _, status := range filter.Statuses {
			if appt.Status == status {
				return true
			}
		}
		return false
	}
	return true
}

type historyTable struct{ s *Store }

func (t historyTable) Create(_ context.Context, history *domain.AppointmentHistory) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = t.s.now()
	t.s.history = append(t.s.history, *history)
	return nil
}

func (t historyTable) ListByAppointment(_ context.Context, appointmentID string) ([]domain.AppointmentHistory, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var result []domain.AppointmentHistory
	for _, entry := range t.s.history {
		if entry.AppointmentID == appointmentID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func page[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
