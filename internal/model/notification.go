package model

import "time"

// NotificationType distinguishes what happened to the reservation.
type NotificationType string

const (
	NotificationReservation  NotificationType = "RESERVATION"
	NotificationCancellation NotificationType = "CANCELLATION"
)

// Notification tells one specialist about a reservation event.  It
// is only ever created as a side effect of reserve or cancel.
type Notification struct {
	ID            uint64           `json:"id"`             // notifications.id
	SpecialistID  uint64           `json:"specialist_id"`  // notifications.specialist_id
	ReservationID uint64           `json:"reservation_id"` // notifications.reservation_id
	Type          NotificationType `json:"type"`           // notifications.type
	IsRead        bool             `json:"is_read"`        // notifications.is_read
	CreatedAt     time.Time        `json:"created_at"`     // notifications.created_at
}
