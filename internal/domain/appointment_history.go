package domain

import "time"

// AppointmentChangeType captures what changed in a history entry.
type AppointmentChangeType string

const (
	ChangeTypeCreated AppointmentChangeType = "CREATED"
	ChangeTypeStatus  AppointmentChangeType = "STATUS_CHANGE"
	ChangeTypeEdit    AppointmentChangeType = "EDIT"
)

// AppointmentHistory is an immutable audit trail entry.
type AppointmentHistory struct {
	ID            string
	AppointmentID string
	ActorRole     ActorRole
	ChangeType    AppointmentChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
