package dto

import (
	"time"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// StaffCreateRequest payload.
type StaffCreateRequest struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Rank   int    `json:"rank"`
	Active *bool  `json:"active"`
}

// StaffResponse is the public view of a staff member.
type StaffResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Rank   int    `json:"rank"`
	Active bool   `json:"active"`
}

// AvailabilityResponse lists the open slots of one staff member on one day.
type AvailabilityResponse struct {
	StaffID string             `json:"staff_id"`
	Date    string             `json:"date"`
	Slots   []domain.TimeOfDay `json:"slots"`
}

// ScheduleRequest payload for PUT /api/admin/staff/:id/schedules/:weekday.
type ScheduleRequest struct {
	IsWorking           bool   `json:"is_working"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	SlotIntervalMinutes *int   `json:"slot_interval_minutes"`
	BreakStart          string `json:"break_start"`
	BreakEnd            string `json:"break_end"`
}

// ScheduleResponse mirrors one weekday row.
type ScheduleResponse struct {
	Weekday             domain.Weekday    `json:"weekday"`
	IsWorking           bool              `json:"is_working"`
	StartTime           *domain.TimeOfDay `json:"start_time"`
	EndTime             *domain.TimeOfDay `json:"end_time"`
	SlotIntervalMinutes *int              `json:"slot_interval_minutes"`
	BreakStart          *domain.TimeOfDay `json:"break_start"`
	BreakEnd            *domain.TimeOfDay `json:"break_end"`
	UpdatedAt           time.Time         `json:"updated_at"`
}
