package domain

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus enumerates lifecycle states for appointments.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// IsActive reports whether the status occupies its slot.
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// IsTerminal reports whether no further transition is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// ParseAppointmentStatus accepts the enum value case-insensitively.
func ParseAppointmentStatus(raw string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar day without a time component.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(raw))
}

// Appointment is the booking record.
type Appointment struct {
	ID            string
	Code          string
	CustomerName  string
	CustomerPhone string
	StaffID       string
	Date          time.Time
	Time          TimeOfDay
	Notes         string
	Status        AppointmentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
