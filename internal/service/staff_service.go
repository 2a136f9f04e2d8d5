package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/repository"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

// StaffService exposes bookable staff and manages their weekly schedules.
type StaffService struct {
	staff     repository.StaffRepository
	schedules repository.WorkScheduleRepository
}

// StaffDependencies encapsulates repositories required for staff management.
type StaffDependencies struct {
	StaffRepo    repository.StaffRepository
	ScheduleRepo repository.WorkScheduleRepository
}

// ScheduleInput is the operator payload for one weekday. Times are "HH:MM".
type ScheduleInput struct {
	IsWorking           bool
	StartTime           string
	EndTime             string
	SlotIntervalMinutes *int
	BreakStart          string
	BreakEnd            string
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:     deps.StaffRepo,
		schedules: deps.ScheduleRepo,
	}
}

// ListStaff returns active staff ordered by rank then name.
func (s *StaffService) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	active := true
	result, err := s.staff.List(ctx, repository.StaffFilter{Active: &active})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// CreateStaff registers a staff member.
func (s *StaffService) CreateStaff(ctx context.Context, actor domain.Actor, member *domain.StaffMember) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	member.Name = strings.TrimSpace(member.Name)
	if member.Name == "" {
		return nil, apperrors.NewInvalidInput("name", "name is required")
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// GetSchedule returns every configured weekday of a staff member.
func (s *StaffService) GetSchedule(ctx context.Context, actor domain.Actor, staffID string) ([]domain.WorkSchedule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.getStaff(ctx, staffID); err != nil {
		return nil, err
	}
	result, err := s.schedules.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// UpsertSchedule replaces the schedule row of one weekday.
func (s *StaffService) UpsertSchedule(ctx context.Context, actor domain.Actor, staffID string, weekday domain.Weekday, input ScheduleInput) (*domain.WorkSchedule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.getStaff(ctx, staffID); err != nil {
		return nil, err
	}

	ws := &domain.WorkSchedule{StaffID: staffID, Weekday: weekday, IsWorking: input.IsWorking}
	fields := []struct {
		name string
		raw  string
		dst  **domain.TimeOfDay
	}{
		{"start_time", input.StartTime, &ws.StartTime},
		{"end_time", input.EndTime, &ws.EndTime},
		{"break_start", input.BreakStart, &ws.BreakStart},
		{"break_end", input.BreakEnd, &ws.BreakEnd},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.raw) == "" {
			continue
		}
		t, err := domain.ParseTimeOfDay(field.raw)
		if err != nil {
			return nil, apperrors.NewInvalidInput(field.name, field.name+" must be formatted as HH:MM")
		}
		*field.dst = &t
	}
	ws.SlotIntervalMinutes = input.SlotIntervalMinutes

	if err := ws.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"weekday": weekday})
	}
	if err := s.schedules.Upsert(ctx, ws); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ws, nil
}

func (s *StaffService) getStaff(ctx context.Context, staffID string) (*domain.StaffMember, error) {
	if _, err := uuid.Parse(staffID); err != nil {
		return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": staffID})
	}
	member, err := s.staff.GetByID(ctx, staffID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": staffID})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}
