package dto

import (
	"time"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// CreateAppointmentRequest payload for public bookings.
type CreateAppointmentRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Notes         string `json:"notes"`
}

// UpdateAppointmentRequest is a partial operator edit; omitted fields are kept.
type UpdateAppointmentRequest struct {
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	StaffID       *string `json:"staff_id"`
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	Notes         *string `json:"notes"`
	Status        *string `json:"status"`
}

// StatusChangeRequest payload.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

// AppointmentResponse is the wire view of an appointment.
type AppointmentResponse struct {
	ID            string                   `json:"id"`
	Code          string                   `json:"code"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	StaffID       string                   `json:"staff_id"`
	Date          string                   `json:"date"`
	Time          domain.TimeOfDay         `json:"time"`
	Notes         string                   `json:"notes"`
	Status        domain.AppointmentStatus `json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                       `json:"id"`
	ActorRole  domain.ActorRole             `json:"actor_role"`
	ChangeType domain.AppointmentChangeType `json:"change_type"`
	OldValue   map[string]any               `json:"old_value,omitempty"`
	NewValue   map[string]any               `json:"new_value,omitempty"`
	CreatedAt  time.Time                    `json:"created_at"`
}

// Page describes the slice of a list that was returned.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
