package events

import (
	"time"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAppointmentCreated       EventType = "appointment_created"
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
	EventAppointmentUpdated       EventType = "appointment_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role      domain.ActorRole `json:"role"`
	SubjectID string           `json:"subject_id,omitempty"`
}

// Event represents a domain event emitted after a committed booking change.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	Actor         Actor     `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload"`
}

// AppointmentCreatedPayload carries what the confirmation SMS needs.
type AppointmentCreatedPayload struct {
	Code          string `json:"code"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// AppointmentStatusChangedPayload payload.
type AppointmentStatusChangedPayload struct {
	Code          string                   `json:"code"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	Date          string                   `json:"date"`
	Time          string                   `json:"time"`
	OldStatus     domain.AppointmentStatus `json:"old_status"`
	NewStatus     domain.AppointmentStatus `json:"new_status"`
}

// AppointmentUpdatedPayload lists the fields an operator edit touched.
type AppointmentUpdatedPayload struct {
	Changed []string `json:"changed"`
}
