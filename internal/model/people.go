package model

import "time"

// Member is a university member who searches, reserves and rates
// accommodations.  Email is unique.
type Member struct {
	ID        uint64    `json:"id"`         // members.id
	Name      string    `json:"name"`       // members.name
	Email     string    `json:"email"`      // members.email
	Phone     string    `json:"phone"`      // members.phone
	CreatedAt time.Time `json:"created_at"` // members.created_at
}

// Specialist is a staff member who moderates ratings and receives
// reservation notifications.  Email is unique.
type Specialist struct {
	ID        uint64    `json:"id"`         // specialists.id
	Name      string    `json:"name"`       // specialists.name
	Email     string    `json:"email"`      // specialists.email
	Phone     string    `json:"phone"`      // specialists.phone
	CreatedAt time.Time `json:"created_at"` // specialists.created_at
}
