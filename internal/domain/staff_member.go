package domain

import "time"

// StaffMember is a bookable person with their own weekly schedule.
type StaffMember struct {
	ID        string
	Name      string
	Title     string
	Rank      int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
